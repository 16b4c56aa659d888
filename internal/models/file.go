package models

import (
	"encoding/json"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FileType string

const (
	TypeFolder FileType = "folder"
	TypeFile   FileType = "file"
	TypeImage  FileType = "image"
)

func (t FileType) Valid() bool {
	switch t {
	case TypeFolder, TypeFile, TypeImage:
		return true
	}
	return false
}

// RootID is the parent of every top-level record.
const RootID ParentID = "0"

// ParentID is either RootID or the hex id of a folder. On the wire the root
// is the number 0 and any other parent is a string.
type ParentID string

func (p ParentID) IsRoot() bool { return p == "" || p == RootID }

func (p ParentID) MarshalJSON() ([]byte, error) {
	if p.IsRoot() {
		return []byte("0"), nil
	}
	return json.Marshal(string(p))
}

func (p *ParentID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = RootID
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "" {
			s = string(RootID)
		}
		*p = ParentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*p = ParentID(n.String())
	return nil
}

// File is a file or folder record. LocalPath is the storage key of the
// content and never leaves the service.
type File struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Name      string             `bson:"name" json:"name"`
	Type      FileType           `bson:"type" json:"type"`
	IsPublic  bool               `bson:"isPublic" json:"isPublic"`
	ParentID  ParentID           `bson:"parentId" json:"parentId"`
	LocalPath string             `bson:"localPath,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"-"`
}

// FilePage is one page of a listing plus the total number of matches.
type FilePage struct {
	Total int64   `bson:"total" json:"total"`
	Page  int     `bson:"page" json:"page"`
	Files []*File `bson:"files" json:"files"`
}
