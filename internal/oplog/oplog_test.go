package oplog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_ReturnsTheSameErrorItRecords(t *testing.T) {
	entry := Start("afc", "ReadDir", "/tmp")
	cause := errors.New("boom")
	got := entry.Error(cause)
	assert.Same(t, cause, got)
	entry.Finish()
}

func TestError_PanicsOnSecondCall(t *testing.T) {
	entry := Start("afc", "ReadDir", "/tmp")
	entry.Error(errors.New("first"))
	assert.Panics(t, func() {
		entry.Error(errors.New("second"))
	})
}

func TestResult_PanicsOnSecondCall(t *testing.T) {
	entry := Start("mounter", "CopyDevices", "")
	entry.Result("found %d images", 2)
	assert.Panics(t, func() {
		entry.Result("found %d images", 3)
	})
	entry.Finish()
}

func TestFinish_IsSafeWithNeitherResultNorError(t *testing.T) {
	entry := Start("notifyproxy", "Observe", "com.apple.mobile.backup")
	assert.NotPanics(t, entry.Finish)
}
