package routes

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bouvin87/SystemBySelections-sub001/app"
	"github.com/bouvin87/SystemBySelections-sub001/httpx"
	"github.com/bouvin87/SystemBySelections-sub001/log"
	"github.com/bouvin87/SystemBySelections-sub001/model"
	"github.com/bouvin87/SystemBySelections-sub001/routes/middlewares"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

var errBoardForbidden = errors.New("board access denied")

// loadBoard fetches a board within the tenant and enforces the visibility
// rule: private boards are only readable by their owner, and only the owner
// may write.
func loadBoard(ctx context.Context, app app.App, boardID int, write bool) (model.KanbanBoard, error) {
	tenantID := middlewares.TenantID(ctx)
	userID := middlewares.UserID(ctx)

	b := model.KanbanBoard{}
	err := app.QueryRowContext(ctx, `
		SELECT id, owner_id, name, public, created_at
		FROM kanban_board
		WHERE id = ? AND tenant_id = ?`,
		boardID, tenantID,
	).Scan(&b.ID, &b.OwnerID, &b.Name, &b.Public, &b.CreatedAt)
	if err != nil {
		return b, err
	}

	if b.OwnerID != userID {
		if write || !b.Public {
			return b, errBoardForbidden
		}
	}
	return b, nil
}

// boardOfColumn and boardOfCard resolve ownership chains for nested writes.
func boardOfColumn(ctx context.Context, app app.App, columnID int) (int, error) {
	var boardID int
	err := app.QueryRowContext(ctx,
		"SELECT board_id FROM kanban_column WHERE id = ?", columnID,
	).Scan(&boardID)
	return boardID, err
}

func boardOfCard(ctx context.Context, app app.App, cardID int) (int, error) {
	var boardID int
	err := app.QueryRowContext(ctx, `
		SELECT c.board_id
		FROM kanban_card k
		INNER JOIN kanban_column c ON (c.id = k.column_id)
		WHERE k.id = ?`,
		cardID,
	).Scan(&boardID)
	return boardID, err
}

func boardError(w http.ResponseWriter, code string, id any, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		httpx.LogNotFound(w, code, id)
	case errors.Is(err, errBoardForbidden):
		httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, code+".forbidden")
	default:
		httpx.LogInternalError(w, "db."+code, err)
	}
}

func CreateBoard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := model.KanbanBoard{}
		err := render.DecodeJSON(r.Body, &b)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(b); err != nil {
			httpx.LogValidation(w, "create_board.validate", err)
			return
		}

		var boardId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO kanban_board (tenant_id, owner_id, name, public)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			middlewares.TenantID(r.Context()), middlewares.UserID(r.Context()),
			b.Name, b.Public,
		).Scan(&boardId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_board", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": boardId,
		})
	}
}

// ListBoards returns the caller's own boards plus public boards of the
// tenant.
func ListBoards(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, owner_id, name, public, created_at
			FROM kanban_board
			WHERE tenant_id = ? AND (owner_id = ? OR public)
			ORDER BY created_at, id`,
			middlewares.TenantID(r.Context()), middlewares.UserID(r.Context()),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_boards", err)
			return
		}
		defer rows.Close()

		boards := []model.KanbanBoard{}
		for rows.Next() {
			b := model.KanbanBoard{}
			if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Public, &b.CreatedAt); err != nil {
				httpx.LogInternalError(w, "db.get_boards.scan", err)
				return
			}
			boards = append(boards, b)
		}

		render.JSON(w, r, map[string]any{
			"boards": boards,
		})
	}
}

func GetBoardById(app app.App) http.HandlerFunc {
	type columnView struct {
		model.KanbanColumn
		Cards []model.KanbanCard `json:"cards"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		boardId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		b, err := loadBoard(r.Context(), app, boardId, false)
		if err != nil {
			boardError(w, "get_board", boardId, err)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, board_id, name, ord
			FROM kanban_column
			WHERE board_id = ?
			ORDER BY ord, id`,
			boardId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_board.columns", err)
			return
		}
		defer rows.Close()

		columns := []columnView{}
		index := map[int]int{}
		for rows.Next() {
			c := model.KanbanColumn{}
			if err := rows.Scan(&c.ID, &c.BoardID, &c.Name, &c.Order); err != nil {
				httpx.LogInternalError(w, "db.get_board.columns.scan", err)
				return
			}
			index[c.ID] = len(columns)
			columns = append(columns, columnView{KanbanColumn: c, Cards: []model.KanbanCard{}})
		}

		cards, err := app.QueryContext(r.Context(), `
			SELECT k.id, k.column_id, k.title, k.description, k.position, k.created_at
			FROM kanban_card k
			INNER JOIN kanban_column c ON (c.id = k.column_id)
			WHERE c.board_id = ?
			ORDER BY k.position, k.id`,
			boardId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_board.cards", err)
			return
		}
		defer cards.Close()

		for cards.Next() {
			k := model.KanbanCard{}
			if err := cards.Scan(&k.ID, &k.ColumnID, &k.Title, &k.Description, &k.Position, &k.CreatedAt); err != nil {
				httpx.LogInternalError(w, "db.get_board.cards.scan", err)
				return
			}
			if i, ok := index[k.ColumnID]; ok {
				columns[i].Cards = append(columns[i].Cards, k)
			}
		}

		render.JSON(w, r, map[string]any{
			"board":   b,
			"columns": columns,
		})
	}
}

func UpdateBoard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boardId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		b := model.KanbanBoard{}
		err = render.DecodeJSON(r.Body, &b)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(b); err != nil {
			httpx.LogValidation(w, "update_board.validate", err)
			return
		}

		if _, err := loadBoard(r.Context(), app, boardId, true); err != nil {
			boardError(w, "update_board", boardId, err)
			return
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE kanban_board SET name = ?, public = ?
			WHERE id = ?`,
			b.Name, b.Public, boardId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_board", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteBoard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boardId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if _, err := loadBoard(r.Context(), app, boardId, true); err != nil {
			boardError(w, "delete_board", boardId, err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		for _, stmt := range []string{
			`DELETE FROM card_attachment WHERE card_id IN (
				SELECT k.id FROM kanban_card k
				INNER JOIN kanban_column c ON (c.id = k.column_id)
				WHERE c.board_id = ?)`,
			`DELETE FROM card_comment WHERE card_id IN (
				SELECT k.id FROM kanban_card k
				INNER JOIN kanban_column c ON (c.id = k.column_id)
				WHERE c.board_id = ?)`,
			`DELETE FROM kanban_card WHERE column_id IN (
				SELECT id FROM kanban_column WHERE board_id = ?)`,
			`DELETE FROM kanban_column WHERE board_id = ?`,
			`DELETE FROM kanban_board WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(r.Context(), stmt, boardId); err != nil {
				httpx.LogInternalError(w, "db.delete_board", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_board.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func CreateColumn(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boardId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		c := model.KanbanColumn{}
		err = render.DecodeJSON(r.Body, &c)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(c); err != nil {
			httpx.LogValidation(w, "create_column.validate", err)
			return
		}

		if _, err := loadBoard(r.Context(), app, boardId, true); err != nil {
			boardError(w, "create_column", boardId, err)
			return
		}

		var columnId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO kanban_column (board_id, name, ord) VALUES (?, ?, ?)
			RETURNING id`,
			boardId, c.Name, c.Order,
		).Scan(&columnId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_column", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": columnId,
		})
	}
}

func UpdateColumn(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		columnId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		c := model.KanbanColumn{}
		err = render.DecodeJSON(r.Body, &c)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(c); err != nil {
			httpx.LogValidation(w, "update_column.validate", err)
			return
		}

		boardId, err := boardOfColumn(r.Context(), app, columnId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "update_column", columnId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_column.board", err)
			return
		}
		if _, err := loadBoard(r.Context(), app, boardId, true); err != nil {
			boardError(w, "update_column", columnId, err)
			return
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE kanban_column SET name = ?, ord = ? WHERE id = ?`,
			c.Name, c.Order, columnId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_column", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteColumn(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		columnId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		boardId, err := boardOfColumn(r.Context(), app, columnId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "delete_column", columnId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_column.board", err)
			return
		}
		if _, err := loadBoard(r.Context(), app, boardId, true); err != nil {
			boardError(w, "delete_column", columnId, err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		for _, stmt := range []string{
			`DELETE FROM card_attachment WHERE card_id IN (
				SELECT id FROM kanban_card WHERE column_id = ?)`,
			`DELETE FROM card_comment WHERE card_id IN (
				SELECT id FROM kanban_card WHERE column_id = ?)`,
			`DELETE FROM kanban_card WHERE column_id = ?`,
			`DELETE FROM kanban_column WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(r.Context(), stmt, columnId); err != nil {
				httpx.LogInternalError(w, "db.delete_column", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_column.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func CreateCard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		columnId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		k := model.KanbanCard{}
		err = render.DecodeJSON(r.Body, &k)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(k); err != nil {
			httpx.LogValidation(w, "create_card.validate", err)
			return
		}

		boardId, err := boardOfColumn(r.Context(), app, columnId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "create_card", columnId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.create_card.board", err)
			return
		}
		if _, err := loadBoard(r.Context(), app, boardId, true); err != nil {
			boardError(w, "create_card", columnId, err)
			return
		}

		// append at the end of the column
		var cardId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO kanban_card (column_id, title, description, position)
			VALUES (?, ?, ?, (
				SELECT COALESCE(MAX(position), -1) + 1 FROM kanban_card WHERE column_id = ?
			))
			RETURNING id`,
			columnId, k.Title, k.Description, columnId,
		).Scan(&cardId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_card", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": cardId,
		})
	}
}

func UpdateCard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		k := model.KanbanCard{}
		err = render.DecodeJSON(r.Body, &k)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(k); err != nil {
			httpx.LogValidation(w, "update_card.validate", err)
			return
		}

		if err := requireCardWrite(r.Context(), app, cardId); err != nil {
			boardError(w, "update_card", cardId, err)
			return
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE kanban_card SET title = ?, description = ? WHERE id = ?`,
			k.Title, k.Description, cardId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_card", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// MoveCard relocates a card to a column/position, shifting the cards after
// the insertion point.
func MoveCard(app app.App) http.HandlerFunc {
	type move struct {
		ColumnID int `json:"columnId"`
		Position int `json:"position"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		cardId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		m := move{}
		err = render.DecodeJSON(r.Body, &m)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := requireCardWrite(r.Context(), app, cardId); err != nil {
			boardError(w, "move_card", cardId, err)
			return
		}

		// the target column must belong to the same board
		sourceBoard, err := boardOfCard(r.Context(), app, cardId)
		if err != nil {
			httpx.LogInternalError(w, "db.move_card.source", err)
			return
		}
		targetBoard, err := boardOfColumn(r.Context(), app, m.ColumnID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "move_card.column", m.ColumnID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.move_card.target", err)
			return
		}
		if sourceBoard != targetBoard {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "move_card.cross_board")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			UPDATE kanban_card SET position = position + 1
			WHERE column_id = ? AND position >= ?`,
			m.ColumnID, m.Position,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.move_card.shift", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			UPDATE kanban_card SET column_id = ?, position = ? WHERE id = ?`,
			m.ColumnID, m.Position, cardId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.move_card", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.move_card.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteCard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if err := requireCardWrite(r.Context(), app, cardId); err != nil {
			boardError(w, "delete_card", cardId, err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		for _, stmt := range []string{
			`DELETE FROM card_attachment WHERE card_id = ?`,
			`DELETE FROM card_comment WHERE card_id = ?`,
			`DELETE FROM kanban_card WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(r.Context(), stmt, cardId); err != nil {
				httpx.LogInternalError(w, "db.delete_card", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_card.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func requireCardWrite(ctx context.Context, app app.App, cardID int) error {
	boardID, err := boardOfCard(ctx, app, cardID)
	if err != nil {
		return err
	}
	_, err = loadBoard(ctx, app, boardID, true)
	return err
}

// requireCardRead allows access when the card's board is readable.
func requireCardRead(ctx context.Context, app app.App, cardID int) error {
	boardID, err := boardOfCard(ctx, app, cardID)
	if err != nil {
		return err
	}
	_, err = loadBoard(ctx, app, boardID, false)
	return err
}

func ListCardComments(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if err := requireCardRead(r.Context(), app, cardId); err != nil {
			boardError(w, "get_card_comments", cardId, err)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, card_id, user_id, body, created_at
			FROM card_comment
			WHERE card_id = ?
			ORDER BY created_at, id`,
			cardId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_card_comments", err)
			return
		}
		defer rows.Close()

		comments := []model.CardComment{}
		for rows.Next() {
			c := model.CardComment{}
			if err := rows.Scan(&c.ID, &c.CardID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
				httpx.LogInternalError(w, "db.get_card_comments.scan", err)
				return
			}
			comments = append(comments, c)
		}

		render.JSON(w, r, map[string]any{
			"comments": comments,
		})
	}
}

func CreateCardComment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		c := model.CardComment{}
		err = render.DecodeJSON(r.Body, &c)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(c); err != nil {
			httpx.LogValidation(w, "create_card_comment.validate", err)
			return
		}

		// commenting is open to anyone who can read the board
		if err := requireCardRead(r.Context(), app, cardId); err != nil {
			boardError(w, "create_card_comment", cardId, err)
			return
		}

		var commentId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO card_comment (card_id, user_id, body)
			VALUES (?, ?, ?)
			RETURNING id`,
			cardId, middlewares.UserID(r.Context()), c.Body,
		).Scan(&commentId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_card_comment", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": commentId,
		})
	}
}

const maxUploadSize = 32 << 20

func UploadAttachment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if err := requireCardRead(r.Context(), app, cardId); err != nil {
			boardError(w, "upload_attachment", cardId, err)
			return
		}

		err = r.ParseMultipartForm(maxUploadSize)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "upload_attachment.parse_form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "upload_attachment.file")
			return
		}
		defer file.Close()

		err = os.MkdirAll(app.UploadDir, 0o755)
		if err != nil {
			httpx.LogInternalError(w, "upload_attachment.mkdir", err)
			return
		}

		storedName := uuid.NewString() + filepath.Ext(header.Filename)
		dst, err := os.Create(filepath.Join(app.UploadDir, storedName))
		if err != nil {
			httpx.LogInternalError(w, "upload_attachment.create", err)
			return
		}
		defer dst.Close()

		size, err := io.Copy(dst, file)
		if err != nil {
			os.Remove(dst.Name())
			httpx.LogInternalError(w, "upload_attachment.write", err)
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		var attachmentId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO card_attachment (card_id, file_name, stored_name, content_type, size)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			cardId, header.Filename, storedName, contentType, size,
		).Scan(&attachmentId)
		if err != nil {
			os.Remove(dst.Name())
			httpx.LogInternalError(w, "db.insert_attachment", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": attachmentId,
		})
	}
}

func DownloadAttachment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attachmentId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		a := model.CardAttachment{}
		err = app.QueryRowContext(r.Context(), `
			SELECT id, card_id, file_name, stored_name, content_type, size
			FROM card_attachment
			WHERE id = ?`,
			attachmentId,
		).Scan(&a.ID, &a.CardID, &a.FileName, &a.StoredName, &a.ContentType, &a.Size)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_attachment", attachmentId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_attachment", err)
			return
		}

		if err := requireCardRead(r.Context(), app, a.CardID); err != nil {
			boardError(w, "get_attachment", attachmentId, err)
			return
		}

		w.Header().Set("Content-Type", a.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+a.FileName+`"`)
		http.ServeFile(w, r, filepath.Join(app.UploadDir, a.StoredName))
	}
}
