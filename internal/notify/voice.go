package notify

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const twilioAPI = "https://api.twilio.com/2010-04-01"

type VoiceConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         []string
}

func (c VoiceConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != "" && len(c.To) > 0
}

// Voice places a phone call per recipient through the Twilio Calls API and
// reads the message out with inline TwiML.
type Voice struct {
	cfg     VoiceConfig
	BaseURL string
	Client  *http.Client
}

func NewVoice(cfg VoiceConfig) *Voice {
	return &Voice{
		cfg:     cfg,
		BaseURL: twilioAPI,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr"`
	Text    string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

// TwiML builds the call script: the message read twice with a pause between.
func TwiML(text string) (string, error) {
	say := twimlSay{Voice: "alice", Text: text}
	b, err := xml.Marshal(twiml{Verbs: []any{say, twimlPause{Length: 1}, say}})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (v *Voice) Send(ctx context.Context, msg Message) error {
	if !v.cfg.Enabled() {
		return errors.New("voice disabled")
	}
	text := msg.Speech
	if text == "" {
		text = msg.Subject
	}
	script, err := TwiML(text)
	if err != nil {
		return fmt.Errorf("build twiml: %w", err)
	}
	var errs error
	for _, to := range v.cfg.To {
		errs = multierr.Append(errs, v.call(ctx, to, script))
	}
	return errs
}

func (v *Voice) call(ctx context.Context, to, script string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", v.cfg.From)
	form.Set("Twiml", script)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", strings.TrimRight(v.BaseURL, "/"), url.PathEscape(v.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(v.cfg.AccountSID, v.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.Client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", to, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("call %s: twilio %d: %s", to, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
