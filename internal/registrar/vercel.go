package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/ottiehq/ottie-server/internal/domain"
)

const defaultVercelBaseURL = "https://api.vercel.com"

// VercelClient talks to the Vercel project-domains API, the concrete
// registrar behind the platform's custom domains.
type VercelClient struct {
	baseURL    string
	token      string
	projectID  string
	httpClient *http.Client
}

func NewVercelClient(baseURL, token, projectID string) *VercelClient {
	if baseURL == "" {
		baseURL = defaultVercelBaseURL
	}
	return &VercelClient{
		baseURL:    baseURL,
		token:      token,
		projectID:  projectID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type domainResponse struct {
	Name         string `json:"name"`
	Verified     bool   `json:"verified"`
	Verification []struct {
		Type   string `json:"type"`
		Domain string `json:"domain"`
		Value  string `json:"value"`
		Reason string `json:"reason"`
	} `json:"verification"`
}

type rankedValue struct {
	Rank  int    `json:"rank"`
	Value string `json:"value"`
}

type domainConfigResponse struct {
	Misconfigured    bool          `json:"misconfigured"`
	RecommendedCNAME []rankedValue `json:"recommendedCNAME"`
	RecommendedIPv4  []rankedValue `json:"recommendedIPv4"`
}

func (c *VercelClient) do(ctx context.Context, method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal registrar request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create registrar request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("registrar request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read registrar response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return asRegistrarError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal registrar response: %w", err)
		}
	}
	return nil
}

// asRegistrarError canonicalizes an upstream failure into the codes the
// core inspects. Vercel uses a few variants for "already registered".
func asRegistrarError(status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)

	code := ae.Error.Code
	switch {
	case status == http.StatusConflict,
		code == "domain_already_in_use", code == "domain_taken", code == "domain_already_exists":
		code = domain.RegistrarCodeAlreadyExists
	case status == http.StatusNotFound:
		code = domain.RegistrarCodeNotFound
	case status == http.StatusForbidden:
		code = domain.RegistrarCodeForbidden
	}
	if code == "" {
		code = fmt.Sprintf("http_%d", status)
	}
	return &domain.RegistrarError{Code: code, Message: ae.Error.Message, Status: status}
}

func (c *VercelClient) AddDomain(ctx context.Context, host string) (*domain.DomainRecord, error) {
	var resp domainResponse
	path := fmt.Sprintf("/v10/projects/%s/domains", url.PathEscape(c.projectID))
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"name": host}, &resp); err != nil {
		return nil, err
	}
	return toDomainRecord(resp), nil
}

func (c *VercelClient) RemoveDomain(ctx context.Context, host string) error {
	path := fmt.Sprintf("/v9/projects/%s/domains/%s", url.PathEscape(c.projectID), url.PathEscape(host))
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if domain.IsRegistrarNotFound(err) {
		return nil
	}
	return err
}

func (c *VercelClient) GetDomain(ctx context.Context, host string) (*domain.DomainRecord, error) {
	var resp domainResponse
	path := fmt.Sprintf("/v9/projects/%s/domains/%s", url.PathEscape(c.projectID), url.PathEscape(host))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return toDomainRecord(resp), nil
}

func (c *VercelClient) GetDomainConfig(ctx context.Context, host string) (*domain.DomainDNSConfig, error) {
	var resp domainConfigResponse
	path := fmt.Sprintf("/v6/domains/%s/config", url.PathEscape(host))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &domain.DomainDNSConfig{
		Misconfigured:    resp.Misconfigured,
		RecommendedCNAME: flattenRanked(resp.RecommendedCNAME),
		RecommendedIPv4:  flattenRanked(resp.RecommendedIPv4),
	}, nil
}

func toDomainRecord(resp domainResponse) *domain.DomainRecord {
	rec := &domain.DomainRecord{
		Name:     resp.Name,
		Verified: resp.Verified,
	}
	for _, v := range resp.Verification {
		rec.Verification = append(rec.Verification, domain.VerificationReason{
			Type:   v.Type,
			Domain: v.Domain,
			Value:  v.Value,
			Reason: v.Reason,
		})
	}
	return rec
}

func flattenRanked(values []rankedValue) []string {
	sort.SliceStable(values, func(i, j int) bool { return values[i].Rank < values[j].Rank })
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.Value)
	}
	return out
}
