package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/region-editor-mcp/internal/imaging"
)

func TestEditor_SingleActiveSession(t *testing.T) {
	handles := imaging.NewHandleRegistry()
	det := &fakeDetector{release: make(chan struct{})}
	editor := NewEditor(
		&RedactFlow{Detector: det, Uploader: &fakeUploader{}, Handles: handles, Options: DefaultOptions()},
		&CropFlow{Recognizer: &fakeRecognizer{}, Handles: handles, Options: DefaultOptions()},
	)

	_, err := editor.Active()
	assert.ErrorIs(t, err, ErrNoSession)

	redact, err := editor.OpenRedact(context.Background(), testSource(t, 30, 30), Target{SubjectID: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, handles.Len())

	crop, err := editor.OpenCrop(context.Background(), testSource(t, 30, 30))
	require.NoError(t, err)
	assert.Equal(t, Cancelled, redact.State())
	assert.Equal(t, 1, handles.Len())

	active, err := editor.Active()
	require.NoError(t, err)
	assert.Same(t, crop, active)

	// The cancelled session's detection result is dropped.
	close(det.release)
	assert.Equal(t, Cancelled, redact.State())

	editor.Close()
	assert.Equal(t, Cancelled, crop.State())
	assert.Zero(t, handles.Len())
	_, err = editor.Active()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEditor_OpenCycleDoesNotLeakHandles(t *testing.T) {
	handles := imaging.NewHandleRegistry()
	editor := NewEditor(nil, &CropFlow{Recognizer: &fakeRecognizer{}, Handles: handles, Options: DefaultOptions()})
	src := testSource(t, 20, 20)

	for i := 0; i < 25; i++ {
		_, err := editor.OpenCrop(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, 1, handles.Len())
	}
	editor.Close()
	assert.Zero(t, handles.Len())

	_, err := editor.OpenRedact(context.Background(), src, Target{SubjectID: "p-1"})
	assert.Error(t, err, "redaction not configured")
}

func TestStateNames(t *testing.T) {
	tests := []struct {
		state  State
		name   string
		busy   bool
		closed bool
	}{
		{SelectFile, "select_file", false, false},
		{Detecting, "detecting", true, false},
		{Editing, "editing", false, false},
		{Baking, "baking", true, false},
		{Uploading, "uploading", true, false},
		{Recognizing, "recognizing", true, false},
		{Done, "done", false, true},
		{Failed, "failed", false, false},
		{Cancelled, "cancelled", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.state.String())
			assert.Equal(t, tt.busy, tt.state.Busy())
			assert.Equal(t, tt.closed, tt.state.Closed())
		})
	}
	assert.Equal(t, "State(42)", State(42).String())
	assert.Equal(t, "crop", ModeCrop.String())
}
