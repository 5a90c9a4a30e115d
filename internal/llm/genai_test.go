package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

func TestFirstText(t *testing.T) {
	t.Parallel()

	text, err := firstText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"summary":"x"}`), genai.Text("ignored")}},
		}},
	})
	require.NoError(t, err)
	require.Equal(t, `{"summary":"x"}`, text)

	cases := map[string]*genai.GenerateContentResponse{
		"nil response":  nil,
		"no candidates": {},
		"no content":    {Candidates: []*genai.Candidate{{}}},
		"non text part": {Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}},
		}}},
	}
	for name, resp := range cases {
		_, err := firstText(resp)
		var extractErr *enricher.ExtractionError
		require.ErrorAs(t, err, &extractErr, name)
	}
}

func TestToExtractionErrorCarriesStatus(t *testing.T) {
	t.Parallel()

	err := toExtractionError(&googleapi.Error{Code: http.StatusServiceUnavailable, Message: "overloaded"})
	var extractErr *enricher.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	require.Equal(t, http.StatusServiceUnavailable, extractErr.StatusCode)

	plain := errors.New("dial tcp")
	err = toExtractionError(plain)
	require.ErrorIs(t, err, plain)
	require.ErrorAs(t, err, &extractErr)
	require.Zero(t, extractErr.StatusCode)
}

func TestNewGenAIClientRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewGenAIClient(context.Background(), GenAIConfig{})
	require.Error(t, err)
}
