package models

// Membership is a directed edge "follower is a member of group". The
// composite unique index makes membership a set: the database rejects a
// second edge for the same (group, follower) pair, which is what keeps
// concurrent duplicate Follow deliveries from creating duplicates.
type Membership struct {
	BaseModel
	FollowerID string `json:"followerID" gorm:"type:varchar(512);not null;index;uniqueIndex:idx_group_follower"`
	GroupID    string `json:"groupID" gorm:"type:varchar(128);not null;index;uniqueIndex:idx_group_follower"`
	Group      Group  `json:"-" gorm:"foreignKey:GroupID;references:ID"`
}

func (Membership) TableName() string {
	return "memberships"
}
