// Package root serves the greeting at the site root.
package root

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/iquant-greeting/internal/greeting"
	applog "github.com/janisto/iquant-greeting/internal/platform/logging"
)

const contentTypeText = "text/plain; charset=utf-8"

// Register wires GET / into the provided API.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-greeting",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Get the greeting",
		Tags:        []string{"Greeting"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "The greeting as plain text",
				Content: map[string]*huma.MediaType{
					"text/plain": {
						Schema: &huma.Schema{Type: huma.TypeString, Examples: []any{greeting.Text}},
					},
				},
			},
		},
	}, getHandler)
}

func getHandler(ctx context.Context, _ *struct{}) (*GetOutput, error) {
	applog.LogInfo(ctx, "greeting served", zap.String("path", "/"))
	return &GetOutput{
		ContentType: contentTypeText,
		Body:        []byte(greeting.Message()),
	}, nil
}
