package consultant

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/services/media"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/timefmt"
	"github.com/mindbridge/counsel-api/utils/validation"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CommentView is a client review as the counselor sees it
type CommentView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Time     string `json:"time"`
	Content  string `json:"content"`
	Rating   int    `json:"rating"`
}

// ProfileView merges the account and its public profile
type ProfileView struct {
	Avatar            string   `json:"avatar"`
	Username          string   `json:"username"`
	Name              string   `json:"name"`
	Phone             string   `json:"phone"`
	Email             string   `json:"email"`
	GraduatedSchool   string   `json:"graduated_school"`
	Address           string   `json:"address"`
	Organization      string   `json:"organization"`
	Profession        string   `json:"profession"`
	Expertise         []string `json:"expertise"`
	Introduction      string   `json:"introduction"`
	Education         string   `json:"education"`
	SkilledField      string   `json:"skilled_field"`
	Certifications    string   `json:"certifications"`
	ConsultationCount int      `json:"consultation_count"`
	ServeType         []string `json:"serve_type"`
}

// ProfileFields are the editable profile values; nil fields are kept
type ProfileFields struct {
	Name            *string  `json:"name" validate:"omitempty,max=50"`
	Phone           *string  `json:"phone" validate:"omitempty,max=20"`
	GraduatedSchool *string  `json:"graduated_school" validate:"omitempty,max=100"`
	Address         *string  `json:"address" validate:"omitempty,max=255"`
	Organization    *string  `json:"organization" validate:"omitempty,max=100"`
	Profession      *string  `json:"profession" validate:"omitempty,max=100"`
	Expertise       []string `json:"expertise"`
	Introduction    *string  `json:"introduction"`
	Education       *string  `json:"education" validate:"omitempty,max=100"`
	SkilledField    *string  `json:"skilled_field"`
	Certifications  *string  `json:"certifications"`
	ServeType       []string `json:"serve_type"`
}

type ProfileUpdateRequest struct {
	Profile ProfileFields `json:"profile"`
}

type FileLinkRequest struct {
	FileID uint `json:"file_id" validate:"required"`
}

func jsonStrings(raw datatypes.JSON) []string {
	out := []string{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func stringsJSON(list []string) datatypes.JSON {
	clean := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			clean = append(clean, validation.SanitizeString(s))
		}
	}
	encoded, _ := json.Marshal(clean)
	return datatypes.JSON(encoded)
}

// profileOf loads the counselor's profile, creating an empty one on first use
func (h *Handler) profileOf(me *model.Counselor) (*model.CounselorProfile, error) {
	profile := model.CounselorProfile{CounselorID: me.ID}
	err := h.DB.Where(model.CounselorProfile{CounselorID: me.ID}).
		Attrs(model.CounselorProfile{Name: me.Name, Organization: me.Organization, Expertise: datatypes.JSON("[]")}).
		FirstOrCreate(&profile).Error
	return &profile, err
}

func newProfileView(me *model.Counselor, p *model.CounselorProfile) ProfileView {
	return ProfileView{
		Avatar:            p.AvatarURL,
		Username:          me.Username,
		Name:              me.Name,
		Phone:             me.Phone,
		Email:             me.Email,
		GraduatedSchool:   p.GraduatedSchool,
		Address:           p.Address,
		Organization:      me.Organization,
		Profession:        p.Profession,
		Expertise:         jsonStrings(p.Expertise),
		Introduction:      p.Introduction,
		Education:         p.Education,
		SkilledField:      p.SkilledField,
		Certifications:    p.Certifications,
		ConsultationCount: p.ConsultationCount,
		ServeType:         jsonStrings(me.ServeType),
	}
}

// Comments handles POST /api/consultant/user/comments
func (h *Handler) Comments(c *fiber.Ctx) error {
	var req PageRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	me := counselor(c)
	page := req.page()
	var reviews []model.Review
	query := h.DB.Model(&model.Review{}).Where("counselor_id = ?", me.ID)
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &reviews)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch comments")
	}

	views := make([]CommentView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, CommentView{
			ID:       r.ID,
			Username: me.Username,
			Name:     r.ClientName,
			Time:     timefmt.FormatMinute(r.CreatedAt),
			Content:  r.Content,
			Rating:   r.Rating,
		})
	}
	return response.Paginated(c, views, page.Meta(total))
}

// Profile handles POST /api/consultant/user/profile
func (h *Handler) Profile(c *fiber.Ctx) error {
	me := counselor(c)
	profile, err := h.profileOf(me)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch profile")
	}
	return response.Success(c, newProfileView(me, profile))
}

// UpdateProfile handles POST /api/consultant/user/update-profile
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req ProfileUpdateRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	me := counselor(c)
	profile, err := h.profileOf(me)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch profile")
	}

	f := req.Profile
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = validation.SanitizeString(*v)
		}
	}
	set(&me.Name, f.Name)
	set(&me.Phone, f.Phone)
	set(&me.Organization, f.Organization)
	set(&profile.GraduatedSchool, f.GraduatedSchool)
	set(&profile.Address, f.Address)
	set(&profile.Profession, f.Profession)
	set(&profile.Introduction, f.Introduction)
	set(&profile.Education, f.Education)
	set(&profile.SkilledField, f.SkilledField)
	set(&profile.Certifications, f.Certifications)
	if f.Expertise != nil {
		profile.Expertise = stringsJSON(f.Expertise)
	}
	if f.ServeType != nil {
		me.ServeType = stringsJSON(f.ServeType)
	}
	profile.Name = me.Name
	profile.Organization = me.Organization

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Save(me).Error; err != nil {
			return err
		}
		return tx.Save(profile).Error
	})
	if err != nil {
		h.Logger.Error("failed to update profile", zap.Uint("counselor_id", me.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to update profile")
	}
	return response.Success(c, newProfileView(me, profile))
}

// UpdateAvatar handles POST /api/consultant/user/update-avatar (multipart
// "avatar"). The image is cropped to a square thumbnail before storing.
func (h *Handler) UpdateAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		return response.BadRequest(c, "avatar is required")
	}
	if !services.IsImage(fh.Filename) {
		return response.BadRequest(c, "Unsupported image type")
	}
	src, err := fh.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read upload")
	}
	defer src.Close()

	thumb, err := media.AvatarThumbnail(src)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedImage) {
			return response.BadRequest(c, "Unsupported image type")
		}
		return response.InternalServerError(c, "Failed to process avatar")
	}

	me := counselor(c)
	profile, err := h.profileOf(me)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch profile")
	}
	file, err := h.Files.Save(c.UserContext(), "avatar.jpg", thumb, services.Upload{
		Module:       model.ModuleAvatar,
		AssociatedID: &me.ID,
		Realm:        model.RealmCounselor,
		UploaderID:   me.ID,
	})
	if err != nil {
		return h.uploadError(c, err)
	}

	profile.AvatarURL = h.Files.Store().URL(file.StorageKey)
	if err := h.DB.Model(profile).Update("avatar_url", profile.AvatarURL).Error; err != nil {
		return response.InternalServerError(c, "Failed to update avatar")
	}
	return response.Success(c, fiber.Map{"avatar": profile.AvatarURL})
}

// FileLink handles POST /api/consultant/user/file-link. It signs a short-lived
// ticket for a file the counselor uploaded.
func (h *Handler) FileLink(c *fiber.Ctx) error {
	var req FileLinkRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	me := counselor(c)
	file, err := h.Files.Find(c.UserContext(), req.FileID)
	if err != nil {
		return h.fileError(c, err)
	}
	if file.UploaderRealm != model.RealmCounselor || file.UploaderID != me.ID {
		return response.NotFound(c, "File not found")
	}

	ticket, expiresAt, err := h.Tickets.Issue(file.ID, string(model.RealmCounselor), me.ID)
	if err != nil {
		h.Logger.Error("failed to sign file ticket", zap.Uint("file_id", file.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to create link")
	}
	return response.Success(c, fiber.Map{
		"url":        "/api/files/" + ticket,
		"expires_at": expiresAt,
	})
}
