package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/radiusdt/dsp-console/internal/models"
)

// InMemoryCampaignRepo implements CampaignRepo, FileRepo and ReportStore
// over maps. Campaign files are keyed by campaign id so deleting a campaign
// drops its artifact row, matching the cascading foreign key in Postgres.
// It backs tests and database-less development runs.
type InMemoryCampaignRepo struct {
	mu        sync.RWMutex
	nextID    int64
	nextFile  int64
	campaigns map[int64]*models.Campaign
	files     map[int64]*models.CampaignFile
	users     *InMemoryUserRepo
}

// NewInMemoryCampaignRepo creates an empty repo. users, when non-nil,
// resolves owner usernames for listings and search.
func NewInMemoryCampaignRepo(users *InMemoryUserRepo) *InMemoryCampaignRepo {
	return &InMemoryCampaignRepo{
		campaigns: make(map[int64]*models.Campaign),
		files:     make(map[int64]*models.CampaignFile),
		users:     users,
	}
}

func (r *InMemoryCampaignRepo) Create(_ context.Context, c *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *InMemoryCampaignRepo) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %d: %w", id, models.ErrNotFound)
	}
	return r.view(ctx, c), nil
}

// Update stores the descriptive fields of c. Stored counters win over
// whatever c carries.
func (r *InMemoryCampaignRepo) Update(_ context.Context, c *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.campaigns[c.ID]
	if !ok {
		return fmt.Errorf("campaign %d: %w", c.ID, models.ErrNotFound)
	}
	cp := *c
	cp.Impressions, cp.Clicks, cp.Views = cur.Impressions, cur.Clicks, cur.Views
	cp.CTR, cp.VTR, cp.Spend = cur.CTR, cur.VTR, cur.Spend
	cp.CreatedAt = cur.CreatedAt
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *InMemoryCampaignRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[id]; !ok {
		return fmt.Errorf("campaign %d: %w", id, models.ErrNotFound)
	}
	delete(r.campaigns, id)
	delete(r.files, id)
	return nil
}

func (r *InMemoryCampaignRepo) List(ctx context.Context, vis Visibility, q CampaignQuery) ([]*models.Campaign, int, error) {
	all, err := r.ListVisible(ctx, vis)
	if err != nil {
		return nil, 0, err
	}
	matched := all[:0]
	for _, c := range all {
		var owner *models.User
		if r.users != nil && c.UserID != nil && len(q.Terms) > 0 {
			owner, _ = r.users.GetByID(ctx, *c.UserID)
		}
		if matchesTerms(c, owner, q.Terms) {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	total := len(matched)
	start := (q.Page - 1) * q.PageSize
	if q.PageSize <= 0 || start < 0 {
		return matched, total, nil
	}
	if start >= total {
		return []*models.Campaign{}, total, nil
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *InMemoryCampaignRepo) ListVisible(ctx context.Context, vis Visibility) ([]*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		if vis.Allows(c) {
			res = append(res, r.view(ctx, c))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *InMemoryCampaignRepo) GetFile(_ context.Context, campaignID int64) (*models.CampaignFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[campaignID]
	if !ok {
		return nil, fmt.Errorf("file for campaign %d: %w", campaignID, models.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (r *InMemoryCampaignRepo) InsertFile(_ context.Context, f *models.CampaignFile) (*models.CampaignFile, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[f.CampaignID]; !ok {
		return nil, false, fmt.Errorf("campaign %d: %w", f.CampaignID, models.ErrNotFound)
	}
	if existing, ok := r.files[f.CampaignID]; ok {
		cp := *existing
		return &cp, false, nil
	}
	r.upsertFileLocked(f)
	cp := *f
	return &cp, true, nil
}

func (r *InMemoryCampaignRepo) ApplyUpload(_ context.Context, campaignID int64, totals models.Totals, f *models.CampaignFile) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	if !ok {
		return "", fmt.Errorf("campaign %d: %w", campaignID, models.ErrNotFound)
	}
	var previous string
	if old, ok := r.files[campaignID]; ok {
		previous = old.ObjectKey
	}
	c.ApplyTotals(totals)
	c.UpdatedAt = time.Now().UTC()
	f.CampaignID = campaignID
	r.upsertFileLocked(f)
	return previous, nil
}

func (r *InMemoryCampaignRepo) upsertFileLocked(f *models.CampaignFile) {
	now := time.Now().UTC()
	if old, ok := r.files[f.CampaignID]; ok {
		f.ID = old.ID
		f.CreatedAt = old.CreatedAt
	} else {
		r.nextFile++
		f.ID = r.nextFile
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	cp := *f
	r.files[f.CampaignID] = &cp
}

// view returns a copy decorated with owner and artifact url. Caller holds
// at least the read lock.
func (r *InMemoryCampaignRepo) view(ctx context.Context, c *models.Campaign) *models.Campaign {
	cp := *c
	if f, ok := r.files[c.ID]; ok {
		cp.FileURL = f.URL
	}
	if r.users != nil && c.UserID != nil {
		if u, err := r.users.GetByID(ctx, *c.UserID); err == nil {
			cp.Owner = u.Username
		}
	}
	return &cp
}

func matchesTerms(c *models.Campaign, owner *models.User, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	fields := []string{c.Name, string(c.Status), c.Owner}
	if owner != nil {
		fields = append(fields, owner.Email, owner.FirstName, owner.LastName)
	}
	for _, t := range terms {
		t = strings.ToLower(t)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), t) {
				return true
			}
		}
	}
	return false
}
