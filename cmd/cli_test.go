//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/config"
	"github.com/visamate/visamate/internal/forms"
	"github.com/visamate/visamate/internal/mapper"
	"github.com/visamate/visamate/internal/model"
	"github.com/visamate/visamate/internal/ocr"
	"github.com/visamate/visamate/internal/sop"
	"github.com/visamate/visamate/internal/wizard"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadJSONFile(t *testing.T) {
	dir := t.TempDir()

	var ans model.Answers
	require.NoError(t, readJSONFile("", &ans))
	assert.Nil(t, ans)

	require.NoError(t, readJSONFile(writeFile(t, dir, "a.json", `{"full_name":"Priya"}`), &ans))
	assert.Equal(t, "Priya", ans["full_name"])

	err := readJSONFile(writeFile(t, dir, "bad.json", `{`), &ans)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")

	err = readJSONFile(filepath.Join(dir, "missing.json"), &ans)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")
}

func TestRunTree(t *testing.T) {
	tree := wizard.Default()

	var buf bytes.Buffer
	require.NoError(t, runTree(&buf, tree, nil, ""))
	out := buf.String()
	assert.Contains(t, out, "tree "+tree.Version())
	assert.Contains(t, out, "basic_info")
	assert.Contains(t, out, "required answered: 0/")

	buf.Reset()
	require.NoError(t, runTree(&buf, tree, model.Answers{}, "basic_info"))
	var qs []model.Question
	require.NoError(t, json.Unmarshal(buf.Bytes(), &qs))
	assert.NotEmpty(t, qs)

	err := runTree(&buf, tree, nil, "no_such_step")
	assert.True(t, apperr.IsValidation(err))
}

func TestLoadTree(t *testing.T) {
	tree, err := loadTree("")
	require.NoError(t, err)
	assert.Equal(t, wizard.Default().Version(), tree.Version())

	_, err = loadTree(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunForms(t *testing.T) {
	filler := forms.NewFiller(forms.NewVisaPolicy(nil))
	data := mapper.Canonical(model.Answers{
		"passport_country_code": "IND",
		"gic_amount":            20635.0,
	}, model.ApplicantData{"passport_number": "K1234567", "full_name": "Priya Sharma"})

	t.Run("all required", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, runForms(&buf, filler, data, "", ""))
		var out map[string]forms.Export
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Contains(t, out, "IMM1294")
		assert.Contains(t, out, "IMM5645")
		assert.Contains(t, out, "IMM5257")
	})

	t.Run("single form with pdf", func(t *testing.T) {
		var buf bytes.Buffer
		pdf := filepath.Join(t.TempDir(), "imm1294.pdf")
		require.NoError(t, runForms(&buf, filler, data, "imm1294", pdf))

		var out forms.Export
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, model.FormIMM1294, out.FormType)

		written, err := os.ReadFile(pdf)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(written, []byte("%PDF")))
	})

	t.Run("pdf needs a form", func(t *testing.T) {
		err := runForms(&bytes.Buffer{}, filler, data, "", "out.pdf")
		assert.Error(t, err)
	})

	t.Run("unknown form", func(t *testing.T) {
		err := runForms(&bytes.Buffer{}, filler, data, "IMM9999", "")
		assert.Error(t, err)
	})
}

func TestRunEligibility(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runEligibility(&buf, model.Answers(scenario()), nil))

	var res model.EligibilityResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.True(t, res.Eligible)
	assert.Empty(t, res.RequirementsMissing)

	buf.Reset()
	require.NoError(t, runEligibility(&buf, nil, nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.False(t, res.Eligible)
	assert.NotEmpty(t, res.Recommendations)
}

type countingRecognizer struct {
	calls atomic.Int32
}

func (c *countingRecognizer) Extract(_ context.Context, data []byte, _ string) (*model.Extraction, error) {
	c.calls.Add(1)
	if strings.Contains(string(data), "corrupt") {
		return nil, errors.New("unreadable document")
	}
	return passportScan(), nil
}

func TestRunOCR(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "passport.pdf", "scan"),
		writeFile(t, dir, "notes.txt", "hello"),
		writeFile(t, dir, "broken.png", "corrupt"),
		filepath.Join(dir, "missing.jpg"),
	}
	rec := &countingRecognizer{}

	var buf bytes.Buffer
	require.NoError(t, runOCR(context.Background(), &buf, rec, files, 2))

	var out []ocrFileResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 4)

	assert.Equal(t, "passport.pdf", out[0].File)
	assert.Equal(t, mapper.DocPassport, out[0].DocumentType)
	assert.Equal(t, "K1234567", out[0].Fields["passport_number"])
	assert.Empty(t, out[0].Error)

	assert.Contains(t, out[1].Error, "unsupported file type")
	assert.Contains(t, out[2].Error, "unreadable document")
	assert.Contains(t, out[3].Error, "read file")
	assert.Equal(t, int32(2), rec.calls.Load())
}

func TestInitRecognizer(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })

	cfg = &config.Config{OCR: config.OCRConfig{Provider: "textract"}}
	rec, err := initRecognizer(aws.Config{Region: "ca-central-1"})
	require.NoError(t, err)
	assert.IsType(t, &ocr.Textract{}, rec)

	cfg = &config.Config{OCR: config.OCRConfig{Provider: "local"}}
	rec, err = initRecognizer(aws.Config{})
	require.NoError(t, err)
	assert.IsType(t, &ocr.PDFText{}, rec)
}

func TestRunSOP(t *testing.T) {
	text := strings.Repeat("My academic background prepares me for this program in Canada. ", 90)
	gen := sop.NewGenerator(stubLLM{text: text}, 800, 1500)
	profile := model.ApplicantData{
		"full_name":             "Priya Sharma",
		"passport_country_code": "IND",
		"program_name":          "MSc Data Science",
		"institution_name":      "University of Toronto",
		"career_goals":          "Lead analytics at a fintech",
		"gic_amount":            20635.0,
	}

	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, runSOP(context.Background(), &buf, gen, profile, ""))
		out := buf.String()
		assert.Contains(t, out, "My academic background")
		assert.Contains(t, out, "words: 900")
		assert.Contains(t, out, "meets requirements:")
	})

	t.Run("file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "sop.txt")
		require.NoError(t, runSOP(context.Background(), &buf, gen, profile, path))
		written, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(written), "My academic background"))
		assert.NotContains(t, buf.String(), "My academic background")
	})

	t.Run("invalid profile", func(t *testing.T) {
		err := runSOP(context.Background(), &bytes.Buffer{}, gen, model.ApplicantData{}, "")
		assert.True(t, apperr.IsValidation(err))
	})
}
