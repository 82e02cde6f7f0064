package users

import (
	"fmt"

	"github.com/adonese/apikit/schema"
	"github.com/samber/lo"
)

// User is the example entity; the identity and audit columns come from
// schema.SchemaBase.
type User struct {
	schema.SchemaBase
	NameFirst string  `gorm:"index;column:name_first" json:"name_first"`
	NameLast  string  `gorm:"index;column:name_last" json:"name_last"`
	Email     *string `gorm:"uniqueIndex;column:email" json:"email"`
}

func (User) TableName() string {
	return "users"
}

// UserRequest is the body accepted when creating users.
type UserRequest struct {
	NameFirst string `json:"name_first" binding:"required"`
	NameLast  string `json:"name_last" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

func (r UserRequest) toUser() User {
	return User{NameFirst: r.NameFirst, NameLast: r.NameLast, Email: lo.ToPtr(r.Email)}
}

// UserUpdate carries the fields a PUT may change; absent fields are kept.
type UserUpdate struct {
	NameFirst *string `json:"name_first" binding:"omitempty,min=1"`
	NameLast  *string `json:"name_last" binding:"omitempty,min=1"`
	Email     *string `json:"email" binding:"omitempty,email"`
}

func (u UserUpdate) values() map[string]any {
	values := map[string]any{}
	if u.NameFirst != nil {
		values["name_first"] = *u.NameFirst
	}
	if u.NameLast != nil {
		values["name_last"] = *u.NameLast
	}
	if u.Email != nil {
		values["email"] = *u.Email
	}
	return values
}

// randomUser builds a user with random names and a random address.
func randomUser() User {
	return User{
		NameFirst: lo.RandomString(5, lo.LowerCaseLettersCharset),
		NameLast:  lo.RandomString(5, lo.LowerCaseLettersCharset),
		Email:     lo.ToPtr(fmt.Sprintf("user%s@yahoo.com", lo.RandomString(10, lo.AlphanumericCharset))),
	}
}
