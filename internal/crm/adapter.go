// Package crm talks to the external lead/pipeline service. The adapter
// absorbs every remote failure at this boundary: callers always get a
// usable (possibly synthetic) result, never a CRM-unavailable error.
package crm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/talkincode/botgate/config"
	"github.com/talkincode/botgate/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UnknownStage groups leads whose stage field is absent.
const UnknownStage = "Unknown"

// FallbackLeads is returned whenever the lead fetch fails for any
// reason (connection refused, timeout, non-2xx, bad payload).
var FallbackLeads = []domain.Lead{
	{ID: "sample-1", Name: "Alice Walker", Phone: "15550100001", Stage: "New"},
	{ID: "sample-2", Name: "Bob Tanner", Phone: "15550100002", Stage: "Contacted"},
	{ID: "sample-3", Name: "Carol Mills", Phone: "15550100003", Stage: UnknownStage},
}

// DefaultStages seeds the grouping keys when the CRM exposes no
// pipelines at all.
var DefaultStages = []string{"New", "Contacted", "Qualified", "Won", "Lost"}

type Adapter struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewAdapter(cfg config.CrmConfig) *Adapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		endpoint: cfg.Endpoint,
		token:    cfg.BearerToken,
		client:   &http.Client{Timeout: timeout},
	}
}

// FetchLeads returns the remote lead list, or FallbackLeads on any
// failure. The cause is logged; the caller contract has no error arm.
func (a *Adapter) FetchLeads(ctx context.Context) []domain.Lead {
	var leads []domain.Lead
	if err := a.getJSON(ctx, "/api/leads", "", &leads); err != nil {
		zap.L().Warn("crm: lead fetch failed, using fallback samples", zap.Error(err))
		out := make([]domain.Lead, len(FallbackLeads))
		copy(out, FallbackLeads)
		return out
	}
	return leads
}

// FetchPipelines returns the remote pipeline list. A 401 is retried once
// with the configured bearer credential; any other failure, or an
// exhausted retry, yields an empty list rather than synthetic data.
func (a *Adapter) FetchPipelines(ctx context.Context) []domain.Pipeline {
	var pipelines []domain.Pipeline
	err := a.getJSON(ctx, "/api/pipelines", "", &pipelines)
	if err == errUnauthorized {
		zap.L().Info("crm: pipeline fetch unauthorized, retrying with bearer credential")
		err = a.getJSON(ctx, "/api/pipelines", a.token, &pipelines)
	}
	if err != nil {
		zap.L().Warn("crm: pipeline fetch failed, returning empty list", zap.Error(err))
		return []domain.Pipeline{}
	}
	return pipelines
}

// ResolveLeadPhone looks up a lead by id and returns its contact phone.
func (a *Adapter) ResolveLeadPhone(ctx context.Context, leadID string) (domain.Lead, error) {
	for _, lead := range a.FetchLeads(ctx) {
		if lead.ID == leadID {
			if lead.ContactPhone() == "" {
				return lead, fmt.Errorf("lead %s has no contact phone", leadID)
			}
			return lead, nil
		}
	}
	return domain.Lead{}, fmt.Errorf("lead %s not found", leadID)
}

var errUnauthorized = fmt.Errorf("crm: unauthorized")

func (a *Adapter) getJSON(ctx context.Context, path, bearer string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return errUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("crm: %s returned %s: %s", path, resp.Status, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// OrganizeByStage maps stage name to the leads in that stage, in lead
// input order. Keys are seeded from every pipeline's declared stages (so
// empty stages still appear), or from DefaultStages when no pipeline is
// present; a lead with an unseeded stage creates its key on demand.
func OrganizeByStage(leads []domain.Lead, pipelines []domain.Pipeline) map[string][]domain.Lead {
	organized := make(map[string][]domain.Lead)
	if len(pipelines) > 0 {
		for _, p := range pipelines {
			for _, stage := range p.Stages {
				if _, ok := organized[stage]; !ok {
					organized[stage] = []domain.Lead{}
				}
			}
		}
	} else {
		for _, stage := range DefaultStages {
			organized[stage] = []domain.Lead{}
		}
	}
	for _, lead := range leads {
		stage := lead.Stage
		if stage == "" {
			stage = UnknownStage
		}
		organized[stage] = append(organized[stage], lead)
	}
	return organized
}
