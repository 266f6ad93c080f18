package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mauv0809/courtside/internal/pubsub"
)

// pushEnvelope is the JSON body Pub/Sub push subscriptions POST.
type pushEnvelope struct {
	Subscription string `json:"subscription"`
	Message      struct {
		ID   string `json:"messageId"`
		Data string `json:"data"`
	} `json:"message"`
}

// decodePush unwraps a push envelope and decodes its payload into v.
func decodePush(r *http.Request, ps pubsub.PubSubClient, v any) (pushEnvelope, error) {
	var env pushEnvelope
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return env, fmt.Errorf("failed to read request body: %w", err)
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("invalid push envelope: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return env, fmt.Errorf("invalid base64 data: %w", err)
	}
	if err := ps.ProcessMessage(raw, v); err != nil {
		return env, fmt.Errorf("invalid message payload: %w", err)
	}
	return env, nil
}
