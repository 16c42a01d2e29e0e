package notifier

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MailgunNotifier sends alert emails through the Mailgun messages API.
type MailgunNotifier struct {
	Domain  string
	SendKey string
	From    string
	To      string
	Client  *http.Client
}

// NewMailgunNotifier creates a notifier with optional proxy support.
func NewMailgunNotifier(domain, sendKey, from, to, proxyURL string) *MailgunNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if from == "" {
		from = fmt.Sprintf("Buy-The-Dip Bot <postmaster@%s>", domain)
	}
	return &MailgunNotifier{
		Domain:  domain,
		SendKey: sendKey,
		From:    from,
		To:      to,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (m *MailgunNotifier) Name() string { return "mailgun" }

// Send posts one email through the Mailgun messages endpoint.
func (m *MailgunNotifier) Send(ticker, body string) error {
	form := url.Values{
		"from":    {m.From},
		"to":      {m.To},
		"subject": {fmt.Sprintf("[Buy-The-Dip] %s", ticker)},
		"text":    {body},
	}

	endpoint := fmt.Sprintf("https://api.mailgun.net/v3/%s/messages", m.Domain)
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth("api", m.SendKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mailgun API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
