package practicum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/pkg/errors"
)

const (
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	defaultTimeout  = 10 * time.Second
)

// Client queries the homework_statuses endpoint.
type Client struct {
	endpoint string
	token    string
	httpc    *http.Client
	now      func() time.Time
}

func New(endpoint, token string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		token:    token,
		httpc:    &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

// FetchUpdates returns the decoded body for homeworks changed since cursor.
// A non-positive cursor means "from now".
func (c *Client) FetchUpdates(ctx context.Context, cursor int64) (homework.RawResponse, error) {
	if cursor <= 0 {
		cursor = c.now().Unix()
	}
	return c.get(ctx, cursor)
}

// FetchAll returns every homework the account has, newest first.
func (c *Client) FetchAll(ctx context.Context) (homework.RawResponse, error) {
	return c.get(ctx, 0)
}

func (c *Client) get(ctx context.Context, fromDate int64) (homework.RawResponse, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, homework.WrapError(homework.KindTransport, "fetch", errors.Wrap(err, "parse endpoint"))
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, homework.WrapError(homework.KindTransport, "fetch", errors.Wrap(err, "new request"))
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, homework.WrapError(homework.KindTransport, "fetch", errors.Wrap(err, "do request"))
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, homework.NewError(homework.KindUpstreamUnavailable, "fetch",
			fmt.Sprintf("practicum api responded with http %d", resp.StatusCode))
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, homework.WrapError(homework.KindMalformedResponse, "fetch", errors.Wrap(err, "decode"))
	}
	return body, nil
}
