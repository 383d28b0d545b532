package anonymizer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-tag-anonymizer/internal/catalog"
	dcm "dicom-tag-anonymizer/internal/dicom"
)

// sampleStudy builds a minimal but complete dataset for one instance of a
// study. All instances written with the same studyUID belong together.
func sampleStudy(t *testing.T, sopUID, studyUID string) []*dicom.Element {
	t.Helper()
	return []*dicom.Element{
		mustNewElement(t, tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(t, tag.MediaStorageSOPInstanceUID, []string{sopUID}),
		mustNewElement(t, tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		mustNewElement(t, tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(t, tag.SOPInstanceUID, []string{sopUID}),
		mustNewElement(t, tag.StudyInstanceUID, []string{studyUID}),
		mustNewElement(t, tag.Modality, []string{"MR"}),
		mustNewElement(t, tag.PatientName, []string{"Doe^Jane"}),
		mustNewElement(t, tag.PatientBirthDate, []string{"19700102"}),
		newStringElement(tag.Tag{Group: 0x0009, Element: 0x0010}, "LO", "vendor block"),
	}
}

func readOutput(t *testing.T, inputDir, name string) *dcm.Dataset {
	t.Helper()
	ds, err := dcm.ReadDicom(filepath.Join(inputDir, DefaultOutputDirName, name))
	require.NoError(t, err)
	return ds
}

func TestRunAnonymizesBatch(t *testing.T) {
	dir := t.TempDir()
	writeTestDicom(t, filepath.Join(dir, "a.dcm"), sampleStudy(t, "1.2.3.100", "1.2.3"))
	writeTestDicom(t, filepath.Join(dir, "b.dcm"), sampleStudy(t, "1.2.3.200", "1.2.3"))

	report, err := Run(context.Background(), Config{
		InputDir:  dir,
		Selection: catalog.DefaultSelection(),
		Workers:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 0, report.Skipped)

	a := readOutput(t, dir, "a.dcm")
	b := readOutput(t, dir, "b.dcm")

	// Identifying text and dates are replaced, clinical fields survive.
	assert.Equal(t, "ANONYMIZED", elementValue(t, a, tag.PatientName))
	assert.Equal(t, "18000101", elementValue(t, a, tag.PatientBirthDate))
	assert.Equal(t, "MR", elementValue(t, a, tag.Modality))
	assert.Equal(t, "1.2.840.10008.5.1.4.1.1.4", elementValue(t, a, tag.SOPClassUID))

	// Both instances keep the same, freshly generated study UID.
	studyA := elementValue(t, a, tag.StudyInstanceUID)
	studyB := elementValue(t, b, tag.StudyInstanceUID)
	assert.NotEqual(t, "1.2.3", studyA)
	assert.True(t, strings.HasPrefix(studyA, "2.25."))
	assert.Equal(t, studyA, studyB)

	// The file meta UID tracks the remapped SOP instance UID.
	sopA := elementValue(t, a, tag.SOPInstanceUID)
	assert.NotEqual(t, "1.2.3.100", sopA)
	assert.Equal(t, sopA, elementValue(t, a, tag.MediaStorageSOPInstanceUID))
	assert.NotEqual(t, sopA, elementValue(t, b, tag.SOPInstanceUID))

	// Private elements are gone.
	_, err = a.Data.FindElementByTag(tag.Tag{Group: 0x0009, Element: 0x0010})
	assert.Error(t, err)
}

func TestRunKeepsDeselectedTags(t *testing.T) {
	dir := t.TempDir()
	writeTestDicom(t, filepath.Join(dir, "a.dcm"), sampleStudy(t, "1.2.3.100", "1.2.3"))

	report, err := Run(context.Background(), Config{
		InputDir:  dir,
		Selection: catalog.DefaultSelection().Without(tag.PatientName),
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)

	out := readOutput(t, dir, "a.dcm")
	assert.Equal(t, "Doe^Jane", elementValue(t, out, tag.PatientName))
	assert.NotEqual(t, "1.2.3", elementValue(t, out, tag.StudyInstanceUID))
}

func TestRunRecordsFailureAndContinues(t *testing.T) {
	dir := t.TempDir()
	writeTestDicom(t, filepath.Join(dir, "good.dcm"), sampleStudy(t, "1.2.3.100", "1.2.3"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.dcm"), []byte("not a dicom file"), 0644))

	report, err := Run(context.Background(), Config{
		InputDir:  dir,
		Selection: catalog.DefaultSelection(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)

	var failed *Result
	for i := range report.Results {
		if report.Results[i].Status == StatusFailed {
			failed = &report.Results[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, filepath.Join(dir, "bad.dcm"), failed.Input)
	assert.Contains(t, failed.Reason, "unreadable file")

	// The good file still came through.
	out := readOutput(t, dir, "good.dcm")
	assert.Equal(t, "ANONYMIZED", elementValue(t, out, tag.PatientName))
}

func TestRunPreservesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "series1"), 0755))
	writeTestDicom(t, filepath.Join(dir, "series1", "a.dcm"), sampleStudy(t, "1.2.3.100", "1.2.3"))

	report, err := Run(context.Background(), Config{
		InputDir:  dir,
		Selection: catalog.DefaultSelection(),
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)

	_, err = os.Stat(filepath.Join(dir, DefaultOutputDirName, "series1", "a.dcm"))
	assert.NoError(t, err)
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	writeTestDicom(t, filepath.Join(dir, "a.dcm"), sampleStudy(t, "1.2.3.100", "1.2.3"))

	report, err := Run(context.Background(), Config{
		InputDir:  dir,
		Selection: catalog.DefaultSelection(),
		DryRun:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "dry run", report.Results[0].Reason)

	// Nothing is written in a dry run.
	_, err = os.Stat(filepath.Join(dir, DefaultOutputDirName))
	assert.True(t, os.IsNotExist(err))
}

func TestRunEmptyDirectory(t *testing.T) {
	report, err := Run(context.Background(), Config{
		InputDir:  t.TempDir(),
		Selection: catalog.DefaultSelection(),
	})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

func TestRunInputErrors(t *testing.T) {
	_, err := Run(context.Background(), Config{InputDir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = Run(context.Background(), Config{InputDir: file})
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestRunCanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeTestDicom(t, filepath.Join(dir, "a.dcm"), sampleStudy(t, "1.2.3.100", "1.2.3"))
	writeTestDicom(t, filepath.Join(dir, "b.dcm"), sampleStudy(t, "1.2.3.200", "1.2.3"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, Config{
		InputDir:  dir,
		Selection: catalog.DefaultSelection(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 2, report.Skipped)
	for _, res := range report.Results {
		assert.Equal(t, StatusSkipped, res.Status)
		assert.Equal(t, "canceled", res.Reason)
	}
}

func TestRunReportsProgress(t *testing.T) {
	dir := t.TempDir()
	writeTestDicom(t, filepath.Join(dir, "a.dcm"), sampleStudy(t, "1.2.3.100", "1.2.3"))
	writeTestDicom(t, filepath.Join(dir, "b.dcm"), sampleStudy(t, "1.2.3.200", "1.2.3"))
	writeTestDicom(t, filepath.Join(dir, "c.dcm"), sampleStudy(t, "1.2.3.300", "1.2.3"))

	var mu sync.Mutex
	var calls [][2]int
	_, err := Run(context.Background(), Config{
		InputDir:  dir,
		Selection: catalog.DefaultSelection(),
		Workers:   2,
		Progress: func(done, total int) {
			mu.Lock()
			calls = append(calls, [2]int{done, total})
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 3)
	for _, c := range calls {
		assert.Equal(t, 3, c[1])
	}
	var hasFinal bool
	for _, c := range calls {
		if c[0] == 3 {
			hasFinal = true
		}
	}
	assert.True(t, hasFinal)
}
