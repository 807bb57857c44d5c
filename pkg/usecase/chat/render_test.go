package chat_test

import (
	"bytes"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/usecase/chat"
)

func TestRenderNoSources(t *testing.T) {
	buf := &bytes.Buffer{}
	chat.Render(buf, &model.Answer{
		Question: "anything?",
		Result:   "nothing found",
	})

	out := buf.String()
	gt.String(t, out).Contains("anything?")
	gt.String(t, out).Contains("nothing found")
	gt.String(t, out).Contains("No sources cited")
}

func TestRenderSourceOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	chat.Render(buf, &model.Answer{
		Question: "q",
		Result:   "a",
		RelevantSources: []*model.Source{
			{Name: "first", Link: "https://example.com/1"},
			{Name: "second", Link: "https://example.com/2"},
		},
	})

	gt.String(t, buf.String()).Contains("Sources:")
	gt.Number(t, bytes.Index(buf.Bytes(), []byte("first"))).
		Less(bytes.Index(buf.Bytes(), []byte("second")))
}
