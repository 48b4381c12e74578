package twilio

import (
	"context"
	"fmt"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// CallPlacer places outbound voice calls through a telephony provider.
type CallPlacer interface {
	PlaceCall(ctx context.Context, to string) (sid string, err error)
}

// Credentials supplies the account sid, auth token, and caller id for one
// call, resolved at request time.
type Credentials func(ctx context.Context) (accountSID, authToken, fromNumber string, err error)

// CallService places outbound calls through the Twilio voice API.
// PlaceCall fails fast when the resolved credentials are incomplete.
type CallService struct {
	credentials       Credentials
	voiceURL          string
	statusCallbackURL string
}

// NewCallService creates a new Twilio call service.
// voiceURL serves the TwiML instruction document for the placed call;
// statusCallbackURL receives the provider's call-status callbacks.
func NewCallService(credentials Credentials, voiceURL, statusCallbackURL string) *CallService {
	return &CallService{
		credentials:       credentials,
		voiceURL:          voiceURL,
		statusCallbackURL: statusCallbackURL,
	}
}

// PlaceCall asks Twilio to place a call to the destination number and
// returns the provider call SID.
func (s *CallService) PlaceCall(ctx context.Context, to string) (string, error) {
	accountSID, authToken, fromNumber, err := s.credentials(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve twilio credentials: %w", err)
	}
	if accountSID == "" || authToken == "" {
		return "", fmt.Errorf("twilio call service is disabled: missing account sid or auth token")
	}
	if fromNumber == "" {
		return "", fmt.Errorf("twilio call service misconfigured: missing from number")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	params := &api.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(fromNumber)
	params.SetUrl(s.voiceURL)
	if s.statusCallbackURL != "" {
		params.SetStatusCallback(s.statusCallbackURL)
		params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	}

	resp, err := client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("twilio create call failed: %w", err)
	}
	if resp.Sid == nil || *resp.Sid == "" {
		return "", fmt.Errorf("twilio returned no call sid")
	}

	logger.Base().Info("outbound call placed",
		zap.String("to", to),
		zap.String("call_sid", *resp.Sid),
	)
	return *resp.Sid, nil
}
