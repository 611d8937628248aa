//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruimo/klavier-core-sub000/bucket"
	"github.com/ruimo/klavier-core-sub000/chunk"
	"github.com/ruimo/klavier-core-sub000/cmd"
	"github.com/ruimo/klavier-core-sub000/constants"
	"github.com/ruimo/klavier-core-sub000/model"
)

const dsWithCoda = `name: ds-coda
rhythm: {numerator: 4, denominator: 4}
bars:
  - tick: 960
    repeats: [Segno]
  - tick: 1920
    repeats: [Coda]
  - tick: 2880
    repeats: [D.S.]
  - tick: 3840
    repeats: [Coda]
`

func TestMain(m *testing.M) {
	scores, err := os.MkdirTemp("", "klavier-scores")
	if err != nil {
		panic(err.Error())
	}
	out, err := os.MkdirTemp("", "klavier-out")
	if err != nil {
		panic(err.Error())
	}
	if err := os.WriteFile(filepath.Join(scores, "ds-coda.yaml"), []byte(dsWithCoda), 0666); err != nil {
		panic(err.Error())
	}
	os.Setenv("KLAVIER_INDEX_PATH", out)

	if err := cmd.Index(scores, 10); err != nil {
		panic(err.Error())
	}
	if err := cmd.LoadServeStore(); err != nil {
		panic(err.Error())
	}

	exitVal := m.Run()

	os.RemoveAll(scores)
	os.RemoveAll(out)
	os.Exit(exitVal)
}

func createRenderReqBody(score model.Score) io.Reader {
	data, err := json.Marshal(model.RenderRequestBody{Score: score})
	if err != nil {
		panic(err.Error())
	}
	return bytes.NewReader(data)
}

func TestIndexedPerformanceE2E(t *testing.T) {
	overviews, err := bucket.New(constants.GetIndexDir()).ReadOverview()
	require.NoError(t, err)
	require.Len(t, overviews, 1)
	assert.Equal(t, "ds-coda", overviews[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/performances/"+overviews[0].ID, nil)
	w := httptest.NewRecorder()
	cmd.NewRouter().ServeHTTP(w, req)

	resp := w.Result()
	respBody, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)

	var perf model.Performance
	require.NoError(t, json.Unmarshal(respBody, &perf))
	assert.Equal([]chunk.Chunk{
		chunk.New(0, 2880),
		chunk.New(960, 1920),
		chunk.New(3840, chunk.OpenEnd),
	}, perf.Chunks)
}

func TestRenderSimpleRepeatE2E(t *testing.T) {
	score := model.Score{Bars: []model.Bar{
		model.NewBar(960, nil, model.MustRepeatSet(model.RepeatEnd)),
	}}
	req := httptest.NewRequest(http.MethodPost, "/render", createRenderReqBody(score))
	w := httptest.NewRecorder()
	cmd.HandleRender(w, req)

	resp := w.Result()
	respBody, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)

	var renderResponse model.RenderResponse
	require.NoError(t, json.Unmarshal(respBody, &renderResponse))
	assert.Equal(model.RenderResponse{
		Chunks: []chunk.Chunk{
			chunk.New(0, 960),
			chunk.New(0, 960),
			chunk.New(960, chunk.OpenEnd),
		},
		Warnings: []string{},
	}, renderResponse)
}
