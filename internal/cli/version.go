package cli

import "fmt"

const Version = "1.0.0"

func formatVersion(appName, version string) string {
	return fmt.Sprintf("%s v%s", appName, version)
}

func versionString(appName string) string {
	return formatVersion(appName, Version)
}
