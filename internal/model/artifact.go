package model

import (
	"time"
)

// LocalTime 以 "YYYY-MM-DD HH:MM:SS" 格式序列化时间。
type LocalTime time.Time

const localTimeLayout = "2006-01-02 15:04:05"

// MarshalJSON implements json.Marshaler.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(localTimeLayout) + `"`), nil
}

// ComparisonArtifact 是一次文档对比生成的 HTML 报告，写入后不可变。
type ComparisonArtifact struct {
	ID        string
	HTMLBody  string
	CreatedAt time.Time
}

// FileName 返回报告在存储中的文件名。
func (a ComparisonArtifact) FileName() string {
	return a.ID + ".html"
}

// ArtifactIndex 对应数据库中的 comparison_artifacts 表，只保存元数据，不保存 HTML 正文。
type ArtifactIndex struct {
	ID            string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	URL           string    `gorm:"type:varchar(255);not null" json:"url"`
	SessionID     string    `gorm:"type:varchar(64);index" json:"sessionId"`
	DocumentCount int       `gorm:"not null;default:0" json:"documentCount"`
	SizeBytes     int       `gorm:"not null;default:0" json:"sizeBytes"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ArtifactIndex) TableName() string {
	return "comparison_artifacts"
}

// ArtifactDTO 是返回给前端的报告列表项。
type ArtifactDTO struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	DocumentCount int       `json:"documentCount"`
	CreatedAt     LocalTime `json:"createdAt"`
}

// ToDTO 将索引记录转换为 DTO。
func (a ArtifactIndex) ToDTO() ArtifactDTO {
	return ArtifactDTO{
		ID:            a.ID,
		URL:           a.URL,
		DocumentCount: a.DocumentCount,
		CreatedAt:     LocalTime(a.CreatedAt),
	}
}
