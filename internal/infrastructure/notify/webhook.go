// Package notify implements the champion-notification webhook, the single
// external collaborator the League Engine calls when a playoff finals
// match crowns a champion. Push notifications themselves are out of
// scope; the hosting application still needs the event so it can fan out
// to whatever notification system it owns. Uses sonic for the JSON body
// and cockroachdb/errors for transient-failure classification; a plain
// *http.Client is enough since a webhook POST needs no queue semantics.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/logging"
)

// WebhookConfig configures the champion-notification webhook endpoint.
type WebhookConfig struct {
	URL string
	Timeout time.Duration
}

// WebhookNotifier posts a champion-crowned event to a configured URL. It
// implements usecase.Notifier.
type WebhookNotifier struct {
	client *http.Client
	url string
	logger *logging.Logger
}

// NewWebhookNotifier builds a WebhookNotifier. A zero Timeout falls back
// to 5s.
func NewWebhookNotifier(cfg WebhookConfig, logger *logging.Logger) *WebhookNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		client: &http.Client{Timeout: timeout},
		url: strings.TrimSpace(cfg.URL),
		logger: logger,
	}
}

type championPayload struct {
	Event string `json:"event"`
	LeagueID string `json:"league_id"`
	ChampionMemberID string `json:"champion_member_id"`
}

// NotifyChampion posts {event:"champion_crowned", league_id, champion_member_id}
// to the configured webhook URL.
func (n *WebhookNotifier) NotifyChampion(ctx context.Context, leagueID, championMemberID string) error {
	if n.url == "" {
		return crerr.New("notify webhook url is not configured")
	}

	body, err := sonic.Marshal(championPayload{
		Event: "champion_crowned",
		LeagueID: leagueID,
		ChampionMemberID: championMemberID,
	})
	if err != nil {
		return crerr.Wrap(err, "marshal champion payload")
	}

	n.logger.InfoContext(ctx, "champion webhook request",
		"league_id", leagueID, "member_id", championMemberID, "curl_preview", buildWebhookCurlPreview(n.url, string(body)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return crerr.Wrap(err, "create champion webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post champion webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("champion webhook returned status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		n.logger.WarnContext(ctx, "champion webhook rejected", "status_code", resp.StatusCode)
		return nil
	}

	return nil
}

// buildWebhookCurlPreview renders a copy-pasteable curl command for the
// outbound POST, logged alongside every request the same way the job
// publisher logs a curl preview for its own outbound calls. bytebufferpool
// avoids an allocation per notification on the hot path.
func buildWebhookCurlPreview(url, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(url))
	appendPart("-H")
	appendPart(shellQuote("Content-Type: application/json"))
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}
