package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/model"
)

const askPromptTemplate = `I will ask you a question and provide context extracted from ingested documents.
Answer using only the provided context. If the context does not contain
enough information to answer, say so explicitly instead of guessing.

Restrictions:
 - Context-only responses: do not generate or assume missing details.
 - Concise and clear: keep the answer to the point.

Question:
%s

Context:
%s`

// Ask answers a question over the ingested documents. The question is
// embedded, the closest stored chunks are retrieved, and the generative
// model produces an answer grounded in them. Relevant sources are ordered
// by best match; partitions within a source by chunk index.
func (c *Client) Ask(ctx context.Context, question string) (*model.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := c.gemini.Embedding(ctx, question)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed question")
	}

	hits, err := c.store.Search(ctx, vector, c.topK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memory")
	}

	prompt := buildPrompt(question, hits)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := c.gemini.GenerateContent(ctx, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer")
	}

	result := responseText(resp)
	if result == "" {
		return nil, goerr.New("model returned no answer text")
	}

	return &model.Answer{
		Question:        question,
		Result:          result,
		RelevantSources: groupSources(hits),
	}, nil
}

func buildPrompt(question string, hits []*adapter.SearchHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf(askPromptTemplate, question, "(no relevant content found)")
	}

	pieces := make([]string, len(hits))
	for i, hit := range hits {
		pieces[i] = hit.Text
	}
	return fmt.Sprintf(askPromptTemplate, question, strings.Join(pieces, "\n\n"))
}

// responseText joins all text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// groupSources folds search hits into one source per document, keeping
// the order of each document's best-ranked hit
func groupSources(hits []*adapter.SearchHit) []*model.Source {
	var sources []*model.Source
	byDoc := make(map[model.DocumentID]*model.Source)

	for _, hit := range hits {
		src, ok := byDoc[hit.DocumentID]
		if !ok {
			src = &model.Source{
				DocumentID: hit.DocumentID,
				Name:       hit.SourceName,
				Link:       hit.Link,
			}
			byDoc[hit.DocumentID] = src
			sources = append(sources, src)
		}
		src.Partitions = append(src.Partitions, model.Partition{
			Index:      hit.Index,
			Text:       hit.Text,
			LastUpdate: hit.UpdatedAt,
		})
	}

	for _, src := range sources {
		sort.Slice(src.Partitions, func(i, j int) bool {
			return src.Partitions[i].Index < src.Partitions[j].Index
		})
	}

	return sources
}
