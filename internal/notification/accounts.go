package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/juju/errors"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/utils"
)

// AccountsClient asks the accounts service for the administrators to notify.
// Every call authenticates with a freshly minted admin token.
type AccountsClient struct {
	baseURL string
	subject string
	tokens  config.TokenConfig
	http    *retryablehttp.Client
}

func NewAccountsClient(cfg config.AccountsConfig, tokens config.TokenConfig, subject string) *AccountsClient {
	c := retryablehttp.NewClient()
	c.RetryMax = cfg.RetryMax
	c.HTTPClient.Timeout = cfg.RequestTimeout
	c.Logger = retryLogger{}
	return &AccountsClient{baseURL: cfg.BaseURL, subject: subject, tokens: tokens, http: c}
}

// adminPageSize matches the largest page the accounts API serves.
const adminPageSize = 1000

type accountsPage struct {
	Data []struct {
		Email string `json:"email"`
	} `json:"data"`
	Count int `json:"count"`
}

// AdminEmails returns the email of every active admin account, following
// the list pages until count is reached.
func (c *AccountsClient) AdminEmails(ctx context.Context) ([]string, error) {
	tok, err := utils.NewAccessToken(c.tokens.Secret, c.tokens.Algorithm, c.subject, model.RoleAdmin, c.tokens.TTL())
	if err != nil {
		return nil, errors.Annotate(err, "mint service token")
	}

	var emails []string
	for skip := 0; ; {
		page, err := c.adminPage(ctx, tok.Token, skip)
		if err != nil {
			return nil, err
		}
		for _, a := range page.Data {
			if a.Email != "" {
				emails = append(emails, a.Email)
			}
		}
		skip += len(page.Data)
		if len(page.Data) == 0 || skip >= page.Count {
			return emails, nil
		}
	}
}

func (c *AccountsClient) adminPage(ctx context.Context, token string, skip int) (*accountsPage, error) {
	q := url.Values{
		"role":  {model.RoleAdmin},
		"skip":  {strconv.Itoa(skip)},
		"limit": {strconv.Itoa(adminPageSize)},
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/accounts?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Annotate(err, "list admin accounts")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("list admin accounts: unexpected status %d", resp.StatusCode)
	}

	var page accountsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.Annotate(err, "decode admin accounts")
	}
	return &page, nil
}

// retryLogger routes retryablehttp's leveled logging into loggo.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...interface{}) { logger.Errorf("%s %s", msg, fmtKV(kv)) }
func (retryLogger) Info(msg string, kv ...interface{})  { logger.Debugf("%s %s", msg, fmtKV(kv)) }
func (retryLogger) Debug(msg string, kv ...interface{}) { logger.Tracef("%s %s", msg, fmtKV(kv)) }
func (retryLogger) Warn(msg string, kv ...interface{})  { logger.Warningf("%s %s", msg, fmtKV(kv)) }

func fmtKV(kv []interface{}) string {
	out := ""
	for i := 0; i+1 < len(kv); i += 2 {
		out += fmt.Sprintf("%v=%v ", kv[i], kv[i+1])
	}
	return out
}
