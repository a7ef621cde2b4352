// Package insights extracts accessibility question/answer pairs from chart
// screenshots via a hosted multimodal model, recording results in a
// persistent ledger so each image is only ever attempted once.
package insights

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/chartvoice/chartvoice/models"
)

// Generator produces accessibility insights for one PNG screenshot.
type Generator interface {
	Generate(ctx context.Context, png []byte) ([]models.QA, error)
}

var insightSchema = generateSchema[models.InsightResponse]()

// Client calls the hosted model with structured-output enforcement.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient builds a Client for the given credential and model name.
func NewClient(apiKey, model string) *Client {
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{api: &c, model: model}
}

// Generate sends the PNG bytes plus the fixed instruction to the model and
// parses the schema-conforming response. Service-side failures come back as
// LLM_* coded errors, malformed output as DECODE_FAILURE; the retry policy
// keys off those codes.
func (c *Client) Generate(ctx context.Context, png []byte) ([]models.QA, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "ChartInsights",
			Schema:      insightSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Accessibility insight question/answer pairs"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:        c.model,
		Instructions: openai.String(systemInstruction),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemUnionParam{
					OfMessage: &responses.EasyInputMessageParam{
						Role: responses.EasyInputMessageRoleUser,
						Content: responses.EasyInputMessageContentUnionParam{
							OfInputItemContentList: responses.ResponseInputMessageContentListParam{
								responses.ResponseInputContentUnionParam{
									OfInputImage: &responses.ResponseInputImageParam{
										ImageURL: openai.String(dataURL),
										Detail:   responses.ResponseInputImageDetailAuto,
									},
								},
								responses.ResponseInputContentUnionParam{
									OfInputText: &responses.ResponseInputTextParam{
										Text: userMessage,
									},
								},
							},
						},
					},
				},
			},
		},
		Text: responses.ResponseTextConfigParam{Format: format},
	}

	resp, err := c.api.Responses.New(ctx, params)
	if err != nil {
		return nil, classifyAPIError(err)
	}

	var out models.InsightResponse
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeDecodeFailure,
			"model output did not conform to the insight schema",
			err,
		)
	}
	if out.Insights == nil {
		out.Insights = []models.QA{}
	}
	return out.Insights, nil
}

// classifyAPIError maps provider errors onto the pipeline error taxonomy.
func classifyAPIError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.StatusCode, err)
	}
	return models.NewPipelineError(models.ErrCodeLLMFailure, "generation request failed", err)
}

func classifyStatus(statusCode int, err error) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewPipelineError(models.ErrCodeLLMAuthFailure, "model API rejected the credential", err)
	case statusCode == http.StatusTooManyRequests:
		return models.NewPipelineError(models.ErrCodeLLMRateLimited, "model API rate limited the request", err)
	default:
		return models.NewPipelineError(
			models.ErrCodeLLMFailure,
			fmt.Sprintf("model API returned %d", statusCode),
			err,
		)
	}
}
