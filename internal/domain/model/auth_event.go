package model

import "time"

// ログイン・rotation・失効などの認証イベント。
type AuthAction string

const (
	//ログイン成功。
	AuthActionLogin AuthAction = "LOGIN"
	//ログイン失敗（credential不一致）。
	AuthActionLoginFailed AuthAction = "LOGIN_FAILED"
	//refresh tokenのrotation成功。
	AuthActionRotate AuthAction = "ROTATE"
	//logoutによる失効。
	AuthActionRevoke AuthAction = "REVOKE"
	//rotation済みtokenの再利用を拒否した（盗難シグナル）。
	AuthActionReplayRejected AuthAction = "REPLAY_REJECTED"
)

// 認証まわりの監査ログ。
// 「どの主体が」「何をしたか」を残す。
type AuthEvent struct {
	//IDは認証イベントの主キー
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//対象の主体（user / organization / moderator）。
	SubjectType SubjectType `gorm:"type:varchar(20);not null;index" json:"subject_type"`

	//主体のID。不明な場合（ログイン失敗など）は0。
	SubjectID int64 `gorm:"not null;index" json:"subject_id"`

	//イベントの種類（LOGIN / ROTATE / REVOKE など）。
	Action AuthAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//補足情報（ログイン名など）。
	Detail string `gorm:"type:text" json:"detail"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
