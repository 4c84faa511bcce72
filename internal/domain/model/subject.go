package model

// トークンが表す主体の種別（user / organization / moderator）
type SubjectType string

const (
	SubjectUser         SubjectType = "user"
	SubjectOrganization SubjectType = "organization"
	SubjectModerator    SubjectType = "moderator"
)

// 既知の種別かどうか
func (t SubjectType) Valid() bool {
	switch t {
	case SubjectUser, SubjectOrganization, SubjectModerator:
		return true
	default:
		return false
	}
}
