// Package validation checks request payloads before they reach the stores.
// Failures are returned as apperror validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/conduit-api/internal/apperror"
	"github.com/conduit-api/internal/models"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
	maxTagLength         = 64
	maxTags              = 20
	maxUsernameLength    = 64
	maxEmailLength       = 255
	maxBioLength         = 1000
	maxImageLength       = 2048
)

// usernames appear in /profiles/:username paths
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// notBlank rejects whitespace-only strings; empty values are left to Required
var notBlank = validation.Match(regexp.MustCompile(`\S`)).Error("cannot be blank")

var tagRules = []validation.Rule{
	validation.Length(0, maxTags),
	validation.Each(validation.Required, notBlank, validation.RuneLength(1, maxTagLength)),
}

// ValidateArticleInput validates an article creation payload
func ValidateArticleInput(in models.ArticleInput) error {
	return toAppError(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, notBlank, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&in.Description, validation.Required, notBlank, validation.RuneLength(1, maxDescriptionLength)),
		validation.Field(&in.Body, validation.Required, notBlank),
		validation.Field(&in.TagList, tagRules...),
	))
}

// ValidateArticlePatch validates an article update payload. Absent fields are
// allowed; present ones follow the creation rules.
func ValidateArticlePatch(p models.ArticlePatch) error {
	return toAppError(validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, notBlank, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&p.Description, validation.NilOrNotEmpty, notBlank, validation.RuneLength(1, maxDescriptionLength)),
		validation.Field(&p.Body, validation.NilOrNotEmpty, notBlank),
		validation.Field(&p.TagList, validation.By(func(value interface{}) error {
			tags, _ := value.(*[]string)
			if tags == nil {
				return nil
			}
			return validation.Validate(*tags, tagRules...)
		})),
	))
}

// ValidateCommentInput validates a comment payload
func ValidateCommentInput(in models.CommentInput) error {
	return toAppError(validation.ValidateStruct(&in,
		validation.Field(&in.Body, validation.Required, notBlank, validation.RuneLength(1, models.MaxCommentLength)),
	))
}

// ValidateUserInput validates a user creation payload
func ValidateUserInput(in models.UserInput) error {
	return toAppError(validation.ValidateStruct(&in,
		validation.Field(&in.Username,
			validation.Required,
			validation.RuneLength(1, maxUsernameLength),
			validation.Match(usernamePattern).Error("may only contain letters, digits, '.', '_' and '-'"),
		),
		validation.Field(&in.Email, validation.Required, validation.RuneLength(1, maxEmailLength), is.Email),
		validation.Field(&in.Bio, validation.RuneLength(0, maxBioLength)),
		validation.Field(&in.Image, validation.RuneLength(0, maxImageLength), is.URL),
	))
}

// ValidateUserPatch validates a user update payload
func ValidateUserPatch(p models.UserPatch) error {
	return toAppError(validation.ValidateStruct(&p,
		validation.Field(&p.Bio, validation.RuneLength(0, maxBioLength)),
		validation.Field(&p.Image, validation.RuneLength(0, maxImageLength), is.URL),
	))
}

// ValidateArticleQuery validates listing parameters. Zero values select the defaults.
func ValidateArticleQuery(q models.ArticleQuery) error {
	return toAppError(validation.ValidateStruct(&q,
		validation.Field(&q.Limit, validation.Min(0)),
		validation.Field(&q.Offset, validation.Min(0)),
	))
}

func toAppError(err error) error {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if errors.As(err, &errs) {
		fields := make(map[string]string, len(errs))
		for field, fieldErr := range errs {
			fields[field] = fieldErr.Error()
		}
		return apperror.Validation("request validation failed", fields)
	}
	return apperror.Internal("validation failed", err)
}
