package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// CORSHeaders общие заголовки ответа шлюза (HTTP-сервер и Lambda)
var CORSHeaders = map[string]string{
	"Access-Control-Allow-Credentials": "true",
	"Access-Control-Allow-Origin":      "*",
	"Access-Control-Allow-Methods":     "GET,OPTIONS,PATCH,DELETE,POST,PUT",
	"Access-Control-Allow-Headers":     "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, X-Api-Version",
}

var errMethodNotAllowed = Envelope{Error: "Method not allowed"}

// LambdaHandler тот же шлюз за API Gateway
type LambdaHandler struct {
	gw *Gateway
}

func NewLambdaHandler(gw *Gateway) *LambdaHandler {
	return &LambdaHandler{gw: gw}
}

func (h *LambdaHandler) Start() {
	lambda.Start(h.Handle)
}

func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch req.HTTPMethod {
	case http.MethodOptions:
		return respond(http.StatusOK, nil)
	case http.MethodPost:
	default:
		return respond(http.StatusMethodNotAllowed, errMethodNotAllowed)
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return respond(http.StatusBadRequest, Envelope{Error: "Invalid request body"})
		}
		body = decoded
	}

	var gwReq Request
	if err := json.Unmarshal(body, &gwReq); err != nil {
		return respond(http.StatusBadRequest, Envelope{Error: "Invalid JSON format"})
	}

	env, err := h.gw.Perform(ctx, gwReq)
	return respond(StatusCode(err), env)
}

func respond(status int, payload any) (events.APIGatewayProxyResponse, error) {
	headers := make(map[string]string, len(CORSHeaders)+1)
	for k, v := range CORSHeaders {
		headers[k] = v
	}
	resp := events.APIGatewayProxyResponse{StatusCode: status, Headers: headers}
	if payload == nil {
		return resp, nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	headers["Content-Type"] = "application/json"
	resp.Body = string(b)
	return resp, nil
}
