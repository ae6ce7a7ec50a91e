package model

import "time"

type KanbanBoard struct {
	ID        int       `json:"id,omitempty"`
	OwnerID   int       `json:"ownerId"`
	Name      string    `json:"name" validate:"required"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type KanbanColumn struct {
	ID      int    `json:"id,omitempty"`
	BoardID int    `json:"boardId"`
	Name    string `json:"name" validate:"required"`
	Order   int    `json:"order"`
}

type KanbanCard struct {
	ID          int       `json:"id,omitempty"`
	ColumnID    int       `json:"columnId"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

type CardComment struct {
	ID        int       `json:"id,omitempty"`
	CardID    int       `json:"cardId"`
	UserID    int       `json:"userId"`
	Body      string    `json:"body" validate:"required"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type CardAttachment struct {
	ID          int       `json:"id,omitempty"`
	CardID      int       `json:"cardId"`
	FileName    string    `json:"fileName"`
	StoredName  string    `json:"-"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}
