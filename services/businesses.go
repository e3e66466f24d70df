package services

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/doeboy11/TAKE-ME-THERE-sub000/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Identity is the authenticated caller as stamped by the auth middleware.
// Role comes from the users table, never from client-supplied state.
type Identity struct {
	ID    uuid.UUID
	Email string
	Name  *string
	Role  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}

type BusinessService struct {
	db *sql.DB
}

func NewBusinessService(db *sql.DB) *BusinessService {
	return &BusinessService{db: db}
}

// BusinessInput carries the owner-editable fields of a business. Approval
// fields are deliberately absent; owners cannot touch them.
type BusinessInput struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Hours       string   `json:"hours"`
	Email       *string  `json:"email"`
	Website     *string  `json:"website"`
	PriceRange  *string  `json:"price_range"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Images      []string `json:"images"`
}

// BusinessUpdate carries a partial update; nil fields are left unchanged.
type BusinessUpdate struct {
	Name        *string   `json:"name"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	Address     *string   `json:"address"`
	Phone       *string   `json:"phone"`
	Hours       *string   `json:"hours"`
	Email       *string   `json:"email"`
	Website     *string   `json:"website"`
	PriceRange  *string   `json:"price_range"`
	Lat         *float64  `json:"lat"`
	Lng         *float64  `json:"lng"`
	Images      *[]string `json:"images"`
}

const businessColumns = `id, owner_id, owner_email, owner_name, name, category, description, address, phone, hours,
	email, website, price_range, lat, lng, images, rating, review_count,
	approval_status, admin_notes, approved_at, approved_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBusiness(row rowScanner) (*models.Business, error) {
	var b models.Business
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.OwnerEmail, &b.OwnerName, &b.Name, &b.Category, &b.Description,
		&b.Address, &b.Phone, &b.Hours, &b.Email, &b.Website, &b.PriceRange, &b.Lat, &b.Lng,
		&b.Images, &b.Rating, &b.ReviewCount,
		&b.ApprovalStatus, &b.AdminNotes, &b.ApprovedAt, &b.ApprovedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create validates the submission and persists it in the pending state.
func (s *BusinessService) Create(owner Identity, in BusinessInput) (*models.Business, error) {
	if owner.ID == uuid.Nil {
		return nil, Errorf(KindAuth, "authentication required")
	}
	if err := validateRequired(in); err != nil {
		return nil, err
	}
	images, err := canonicalImageURLs(in.Images)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO businesses (owner_id, owner_email, owner_name, name, category, description, address, phone, hours,
			email, website, price_range, lat, lng, images, approval_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + businessColumns

	row := s.db.QueryRow(query,
		owner.ID, owner.Email, owner.Name, in.Name, in.Category, in.Description, in.Address, in.Phone, in.Hours,
		in.Email, in.Website, in.PriceRange, in.Lat, in.Lng, pq.Array(images), models.StatusPending,
	)
	b, err := scanBusiness(row)
	if err != nil {
		return nil, WrapStore("failed to create business", err)
	}
	return b, nil
}

// GetByID returns a business regardless of approval status; callers that
// serve public traffic filter on status themselves.
func (s *BusinessService) GetByID(id uuid.UUID) (*models.Business, error) {
	row := s.db.QueryRow(`SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id)
	b, err := scanBusiness(row)
	if err == sql.ErrNoRows {
		return nil, Errorf(KindNotFound, "business not found")
	}
	if err != nil {
		return nil, WrapStore("failed to fetch business", err)
	}
	return b, nil
}

// Update applies a partial update. Only the owner or an admin may call it;
// approval fields are not reachable through BusinessUpdate.
func (s *BusinessService) Update(id uuid.UUID, actor Identity, in BusinessUpdate) (*models.Business, error) {
	current, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, Errorf(KindForbidden, "only the owner or an admin may update this business")
	}

	set := []string{}
	args := []interface{}{}
	add := func(col string, val interface{}) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if in.Name != nil {
		add("name", *in.Name)
	}
	if in.Category != nil {
		add("category", *in.Category)
	}
	if in.Description != nil {
		add("description", *in.Description)
	}
	if in.Address != nil {
		add("address", *in.Address)
	}
	if in.Phone != nil {
		add("phone", *in.Phone)
	}
	if in.Hours != nil {
		add("hours", *in.Hours)
	}
	if in.Email != nil {
		add("email", *in.Email)
	}
	if in.Website != nil {
		add("website", *in.Website)
	}
	if in.PriceRange != nil {
		add("price_range", *in.PriceRange)
	}
	if in.Lat != nil {
		add("lat", *in.Lat)
	}
	if in.Lng != nil {
		add("lng", *in.Lng)
	}
	if in.Images != nil {
		images, err := canonicalImageURLs(*in.Images)
		if err != nil {
			return nil, err
		}
		add("images", pq.Array(images))
	}

	if len(set) == 0 {
		return current, nil
	}
	set = append(set, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE businesses SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), businessColumns)

	b, err := scanBusiness(s.db.QueryRow(query, args...))
	if err != nil {
		return nil, WrapStore("failed to update business", err)
	}
	return b, nil
}

// Delete removes the business and its stored images. Reviews and view rows
// go with it via ON DELETE CASCADE.
func (s *BusinessService) Delete(id uuid.UUID, actor Identity) error {
	current, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if current.OwnerID != actor.ID && !actor.IsAdmin() {
		return Errorf(KindForbidden, "only the owner or an admin may delete this business")
	}

	// Images first; a failed destroy leaves an orphan asset, not a broken row
	if Cloudinary != nil {
		for _, url := range current.Images {
			publicID := ExtractPublicID(url)
			if publicID == "" {
				continue
			}
			if err := Cloudinary.DeleteImage(publicID); err != nil {
				log.Printf("Failed to delete image %s: %v", publicID, err)
			}
		}
	}

	result, err := s.db.Exec(`DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return WrapStore("failed to delete business", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return Errorf(KindNotFound, "business not found")
	}
	return nil
}

// ListApproved returns the public directory page. Ordering is stable
// across pages: creation time descending, ties broken by id.
func (s *BusinessService) ListApproved(page, pageSize int) ([]models.Business, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	rows, err := s.db.Query(`
		SELECT `+businessColumns+`
		FROM businesses
		WHERE approval_status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		models.StatusApproved, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, WrapStore("failed to list businesses", err)
	}
	return collectBusinesses(rows)
}

// ListByStatus is the admin console view of the moderation queue.
func (s *BusinessService) ListByStatus(actor Identity, status string) ([]models.Business, error) {
	if !actor.IsAdmin() {
		return nil, Errorf(KindForbidden, "admin access required")
	}
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		return nil, Errorf(KindValidation, "invalid status %q", status)
	}

	rows, err := s.db.Query(`
		SELECT `+businessColumns+`
		FROM businesses
		WHERE approval_status = $1
		ORDER BY created_at DESC, id DESC`, status)
	if err != nil {
		return nil, WrapStore("failed to list businesses", err)
	}
	return collectBusinesses(rows)
}

func (s *BusinessService) ListByOwner(ownerID uuid.UUID) ([]models.Business, error) {
	rows, err := s.db.Query(`
		SELECT `+businessColumns+`
		FROM businesses
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, WrapStore("failed to list businesses", err)
	}
	return collectBusinesses(rows)
}

// Approve moves a business to the approved state. Reversible: an admin may
// approve a previously rejected business. Single-row UPDATE, no
// read-modify-write, so two racing admins last-write-win cleanly.
func (s *BusinessService) Approve(id uuid.UUID, admin Identity, notes *string) (*models.Business, error) {
	return s.setStatus(id, admin, models.StatusApproved, notes)
}

// Reject moves a business to the rejected state; also reversible.
func (s *BusinessService) Reject(id uuid.UUID, admin Identity, notes *string) (*models.Business, error) {
	return s.setStatus(id, admin, models.StatusRejected, notes)
}

func (s *BusinessService) setStatus(id uuid.UUID, admin Identity, status string, notes *string) (*models.Business, error) {
	if admin.ID == uuid.Nil {
		return nil, Errorf(KindAuth, "authentication required")
	}
	if !admin.IsAdmin() {
		return nil, Errorf(KindForbidden, "admin access required")
	}

	row := s.db.QueryRow(`
		UPDATE businesses
		SET approval_status = $1, admin_notes = $2, approved_at = now(), approved_by = $3, updated_at = now()
		WHERE id = $4
		RETURNING `+businessColumns,
		status, notes, admin.ID, id)
	b, err := scanBusiness(row)
	if err == sql.ErrNoRows {
		return nil, Errorf(KindNotFound, "business not found")
	}
	if err != nil {
		return nil, WrapStore("failed to update approval status", err)
	}
	return b, nil
}

// CountByStatus backs the admin stats endpoint.
func (s *BusinessService) CountByStatus() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT approval_status, COUNT(*) FROM businesses GROUP BY approval_status`)
	if err != nil {
		return nil, WrapStore("failed to count businesses", err)
	}
	defer rows.Close()

	counts := map[string]int{
		models.StatusPending:  0,
		models.StatusApproved: 0,
		models.StatusRejected: 0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, WrapStore("failed to scan count", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, WrapStore("failed to count businesses", err)
	}
	return counts, nil
}

func collectBusinesses(rows *sql.Rows) ([]models.Business, error) {
	defer rows.Close()
	businesses := []models.Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, WrapStore("failed to scan business", err)
		}
		businesses = append(businesses, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapStore("failed to list businesses", err)
	}
	return businesses, nil
}

func validateRequired(in BusinessInput) error {
	missing := []string{}
	for field, value := range map[string]string{
		"name":        in.Name,
		"category":    in.Category,
		"description": in.Description,
		"address":     in.Address,
		"phone":       in.Phone,
		"hours":       in.Hours,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return Errorf(KindValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// canonicalImageURLs rejects non-durable references (a preview blob: URL
// that slipped into the submission) and maps storage-relative paths to
// full delivery URLs, falling back to the placeholder when a path cannot
// be resolved.
func canonicalImageURLs(images []string) ([]string, error) {
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		lower := strings.ToLower(img)
		if strings.HasPrefix(lower, "blob:") || strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "file:") {
			return nil, Errorf(KindValidation, "image %q is a local reference, upload it first", img)
		}
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			out = append(out, forceHTTPS(img))
			continue
		}
		// Storage-relative path: resolve against Cloudinary
		if Cloudinary != nil {
			if url := Cloudinary.GetImageURL(img); url != "" {
				out = append(out, url)
				continue
			}
		}
		out = append(out, PlaceholderImageURL)
	}
	return out, nil
}
