package memory

import (
	"context"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

// StaticWebsites is the built-in demo roster used by roster.provider=static.
var StaticWebsites = []string{
	"www.seez.co", "www.presight.ai/", "pathfinder.global/",
	"www.synapse-analytics.io/", "fifreedomtoday.com/", "www.thegamecompany.ai/", "www.tenderd.com/",
	"realiste.ai", "www.aitech.io/", "zoftwarehub.com/", "www.cleargrid.ai", "haloai.app/en",
	"healsgood.com", "www.instacodigo.com", "www.maximuz.tech", "www.predictivdata.com",
	"fantv.world", "qanooni.ai/", "jobescape.me/", "liberaglobal.ai", "gothelist.com",
	"www.micropolis.ai", "cybirb.com", "www.ragworks.ai", "www.wellxai.com/", "www.jadasquad.com",
	"www.neurobotx.ai", "augmento.com", "revsetter.ai", "www.distichain.com", "skillfulai.io/",
	"texel.graphics", "www.zeroe.io", "lokalee.app/", "exv.io",
}

// Roster serves a fixed company list.
type Roster struct {
	companies []enricher.Company
	err       error
}

var _ enricher.RosterSource = (*Roster)(nil)

// NewRoster serves companies in the given order.
func NewRoster(companies []enricher.Company) *Roster {
	return &Roster{companies: append([]enricher.Company(nil), companies...)}
}

// NewStaticRoster numbers websites 1..N in order.
func NewStaticRoster(websites []string) *Roster {
	companies := make([]enricher.Company, 0, len(websites))
	for i, site := range websites {
		companies = append(companies, enricher.Company{ID: int64(i + 1), Website: site})
	}
	return &Roster{companies: companies}
}

// NewFailingRoster returns a roster whose ListCompanies always fails.
// It exists for tests of roster error handling.
func NewFailingRoster(err error) *Roster {
	return &Roster{err: err}
}

// ListCompanies returns a copy of the roster.
func (r *Roster) ListCompanies(_ context.Context) ([]enricher.Company, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append([]enricher.Company(nil), r.companies...), nil
}
