// Package sales implements the garage sale listing lifecycle: submission,
// email verification, publication, owner edits through the edit-token link,
// and administrator moderation.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/kcgaragesales/kc-garage-sales/internal/access"
	"github.com/kcgaragesales/kc-garage-sales/internal/captcha"
	"github.com/kcgaragesales/kc-garage-sales/internal/catalog"
	"github.com/kcgaragesales/kc-garage-sales/internal/geocoding"
	"github.com/kcgaragesales/kc-garage-sales/internal/media"
	"github.com/kcgaragesales/kc-garage-sales/internal/notify"
)

// Deps wires a Service. Captcha and Media are optional: a nil Captcha skips
// the captcha step and a nil Media ignores uploaded photos.
type Deps struct {
	Repo     Repository
	Geocoder geocoding.Resolver
	Captcha  captcha.Verifier
	Media    media.Store
	Mailer   notify.Sender
	Catalog  *catalog.Catalog

	MaxPhotos     int
	MaxPhotoBytes int64
	Location      *time.Location
	Now           func() time.Time
}

type Service struct {
	repo     Repository
	geocoder geocoding.Resolver
	captcha  captcha.Verifier
	media    media.Store
	mailer   notify.Sender
	catalog  *catalog.Catalog

	maxPhotos     int
	maxPhotoBytes int64
	loc           *time.Location
	now           func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:          d.Repo,
		geocoder:      d.Geocoder,
		captcha:       d.Captcha,
		media:         d.Media,
		mailer:        d.Mailer,
		catalog:       d.Catalog,
		maxPhotos:     d.MaxPhotos,
		maxPhotoBytes: d.MaxPhotoBytes,
		loc:           d.Location,
		now:           d.Now,
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.mailer == nil {
		s.mailer = notify.Noop{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Catalog returns the category and location vocabulary used for validation.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Today is the current calendar day in the service's time zone.
func (s *Service) Today() Date {
	return DateOf(s.now().In(s.loc))
}

// Submit creates an unverified listing and emails its owner the
// verification and manage links. Steps run in order and stop at the first
// failure; photo uploads and the email are best-effort.
func (s *Service) Submit(ctx context.Context, in Submission) (uuid.UUID, error) {
	if s.captcha != nil {
		if strings.TrimSpace(in.CaptchaToken) == "" {
			return uuid.Nil, invalid("Please complete the captcha")
		}
		if !s.captcha.Verify(ctx, in.CaptchaToken) {
			return uuid.Nil, invalid("Captcha verification failed. Please try again.")
		}
	}

	trimAll(&in.Email, &in.Title, &in.Description, &in.Address, &in.City, &in.State,
		&in.ZipCode, &in.StartDate, &in.EndDate, &in.StartTime, &in.EndTime)
	for _, f := range []string{in.Email, in.Title, in.Address, in.City, in.State,
		in.ZipCode, in.StartDate, in.StartTime, in.EndTime} {
		if f == "" {
			return uuid.Nil, invalid(missingFields)
		}
	}

	if !s.catalog.IsState(in.State) {
		return uuid.Nil, invalid("State must be one of " + strings.Join(s.catalog.StateCodes(), ", "))
	}

	if !validEmail(in.Email) {
		return uuid.Nil, invalid("Invalid email address")
	}
	if !zipPattern.MatchString(in.ZipCode) {
		return uuid.Nil, invalid("Invalid zip code")
	}
	startDate, endDate, startTime, endTime, err := schedule(in.StartDate, in.EndDate, in.StartTime, in.EndTime)
	if err != nil {
		return uuid.Nil, err
	}
	cats, err := categories(s.catalog, in.Categories)
	if err != nil {
		return uuid.Nil, err
	}
	city := titleCity(in.City)

	photos := s.uploadPhotos(ctx, in.Photos)

	coords, err := s.geocoder.Resolve(ctx, geocoding.Address{
		Street: in.Address,
		City:   city,
		State:  in.State,
		Zip:    in.ZipCode,
	})
	if err != nil {
		s.purgePhotos(ctx, photos)
		return uuid.Nil, invalid("Could not find that address. Please check and try again.")
	}

	listing := &Listing{
		Email:       in.Email,
		Title:       in.Title,
		Description: in.Description,
		Categories:  pq.StringArray(cats),
		Photos:      pq.StringArray(photos),
		Address:     in.Address,
		City:        city,
		State:       in.State,
		ZipCode:     in.ZipCode,
		Latitude:    coords.Lat,
		Longitude:   coords.Lng,
		StartDate:   startDate,
		EndDate:     endDate,
		StartTime:   startTime,
		EndTime:     endTime,
	}
	created, err := s.repo.Insert(ctx, listing)
	if err != nil {
		s.purgePhotos(ctx, photos)
		return uuid.Nil, err
	}

	if err := s.mailer.SendVerification(ctx, notify.Verification{
		To:                in.Email,
		Title:             created.Title,
		VerificationToken: created.VerificationToken,
		EditToken:         created.EditToken,
	}); err != nil {
		log.Warn().Err(err).Str("sale_id", created.ID.String()).Msg("verification email not sent")
	}

	log.Info().Str("sale_id", created.ID.String()).Int("photos", len(photos)).Msg("listing submitted")
	return created.ID, nil
}

// uploadPhotos stores what it can and returns the public URLs in upload
// order. Oversized, non-image and failed files are dropped.
func (s *Service) uploadPhotos(ctx context.Context, uploads []Upload) []string {
	if s.media == nil || len(uploads) == 0 {
		return nil
	}

	urls := make([]string, 0, len(uploads))
	for i, u := range uploads {
		if s.maxPhotos > 0 && i >= s.maxPhotos {
			log.Warn().Int("dropped", len(uploads)-i).Msg("too many photos")
			break
		}
		if len(u.Data) == 0 {
			continue
		}
		if s.maxPhotoBytes > 0 && int64(len(u.Data)) > s.maxPhotoBytes {
			log.Warn().Str("file", u.Filename).Int("bytes", len(u.Data)).Msg("photo too large, skipped")
			continue
		}
		if !media.IsImage(u.ContentType) {
			log.Warn().Str("file", u.Filename).Str("content_type", u.ContentType).Msg("not an image, skipped")
			continue
		}
		url, err := s.media.Put(ctx, u.Data, u.ContentType, u.Filename)
		if err != nil {
			log.Warn().Err(err).Str("file", u.Filename).Msg("photo upload failed, skipped")
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

func (s *Service) purgePhotos(ctx context.Context, urls []string) {
	if s.media == nil {
		return
	}
	for _, u := range urls {
		if err := s.media.Delete(ctx, u); err != nil {
			log.Warn().Err(err).Msg("photo delete failed")
		}
	}
}

// Verify redeems a verification token. Redeeming it again is a no-op that
// reports AlreadyVerified.
func (s *Service) Verify(ctx context.Context, token string) (VerifyOutcome, error) {
	l, err := s.repo.FindByVerificationToken(ctx, token)
	if err != nil {
		return VerifyOutcome{}, err
	}
	if l.IsVerified {
		return VerifyOutcome{ID: l.ID, AlreadyVerified: true}, nil
	}

	changed, err := s.repo.MarkVerified(ctx, l.ID)
	if err != nil {
		return VerifyOutcome{}, err
	}
	if changed {
		log.Info().Str("sale_id", l.ID.String()).Msg("listing verified")
	}
	return VerifyOutcome{ID: l.ID, AlreadyVerified: !changed}, nil
}

// ListUpcoming returns verified listings that have not ended yet, soonest
// first.
func (s *Service) ListUpcoming(ctx context.Context, f Filter) ([]Listing, error) {
	f.Category = strings.TrimSpace(f.Category)
	f.City = strings.TrimSpace(f.City)
	f.Query = strings.TrimSpace(f.Query)
	return s.repo.ListPublicUpcoming(ctx, s.Today(), f)
}

// Get returns one verified listing. Unverified listings are not found.
func (s *Service) Get(ctx context.Context, id string) (Listing, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Listing{}, ErrNotFound
	}
	return s.repo.FindPublicByID(ctx, uid)
}

// Manage loads a listing by its edit token. Possession of the token is the
// only authorization.
func (s *Service) Manage(ctx context.Context, editToken string) (Listing, error) {
	return s.repo.FindByEditToken(ctx, editToken)
}

// Update changes the owner-editable fields of the listing behind editToken.
// Location, photos and tokens never change after creation.
func (s *Service) Update(ctx context.Context, editToken string, in Update) error {
	l, err := s.repo.FindByEditToken(ctx, editToken)
	if err != nil {
		return err
	}

	trimAll(&in.Title, &in.Description, &in.StartDate, &in.EndDate, &in.StartTime, &in.EndTime)
	if in.Title == "" || in.StartDate == "" || in.StartTime == "" || in.EndTime == "" {
		return invalid(missingFields)
	}
	startDate, endDate, startTime, endTime, err := schedule(in.StartDate, in.EndDate, in.StartTime, in.EndTime)
	if err != nil {
		return err
	}
	cats, err := categories(s.catalog, in.Categories)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateEditableFields(ctx, l.ID, EditableFields{
		Title:       in.Title,
		Description: in.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		StartTime:   startTime,
		EndTime:     endTime,
		Categories:  cats,
	}); err != nil {
		return err
	}
	log.Info().Str("sale_id", l.ID.String()).Msg("listing updated by owner")
	return nil
}

// Delete removes the listing behind editToken and its photos.
func (s *Service) Delete(ctx context.Context, editToken string) error {
	l, err := s.repo.FindByEditToken(ctx, editToken)
	if err != nil {
		return err
	}
	if err := s.remove(ctx, l); err != nil {
		return err
	}
	log.Info().Str("sale_id", l.ID.String()).Msg("listing deleted by owner")
	return nil
}

func (s *Service) remove(ctx context.Context, l Listing) error {
	s.purgePhotos(ctx, l.Photos)
	return s.repo.DeleteByID(ctx, l.ID)
}

// ListForModeration returns every listing, newest first.
func (s *Service) ListForModeration(ctx context.Context, admin access.Admin) ([]Listing, error) {
	if !admin.Authenticated() {
		return nil, ErrUnauthorized
	}
	return s.repo.ListAllForModeration(ctx)
}

// SetVerified publishes or hides a listing.
func (s *Service) SetVerified(ctx context.Context, admin access.Admin, id string, verified bool) error {
	if !admin.Authenticated() {
		return ErrUnauthorized
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	if err := s.repo.SetVerified(ctx, uid, verified); err != nil {
		return err
	}
	log.Info().Str("sale_id", id).Bool("verified", verified).Msg("listing moderated")
	return nil
}

// AdminDelete removes any listing and its photos.
func (s *Service) AdminDelete(ctx context.Context, admin access.Admin, id string) error {
	if !admin.Authenticated() {
		return ErrUnauthorized
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	l, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.remove(ctx, l); err != nil {
		return err
	}
	log.Info().Str("sale_id", id).Msg("listing deleted by admin")
	return nil
}

// Report emails the administrator about a listing. Unlike the verification
// email, a failed send is returned to the caller.
func (s *Service) Report(ctx context.Context, r notify.Report) error {
	r.SaleID = strings.TrimSpace(r.SaleID)
	if r.SaleID == "" {
		return invalid("Sale ID is required")
	}
	r.SaleTitle = strings.TrimSpace(r.SaleTitle)
	r.Reason = strings.TrimSpace(r.Reason)

	if err := s.mailer.SendReport(ctx, r); err != nil {
		return fmt.Errorf("sending report: %w", err)
	}
	log.Info().Str("sale_id", r.SaleID).Msg("listing reported")
	return nil
}

// IsValidation reports whether err is caller-facing input trouble.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
