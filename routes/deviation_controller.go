package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bouvin87/SystemBySelections-sub001/app"
	"github.com/bouvin87/SystemBySelections-sub001/httpx"
	"github.com/bouvin87/SystemBySelections-sub001/log"
	"github.com/bouvin87/SystemBySelections-sub001/model"
	"github.com/bouvin87/SystemBySelections-sub001/routes/middlewares"
	"github.com/go-chi/render"
)

func ListCustomFields(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, name, field_type, required, ord, options
			FROM custom_field
			WHERE tenant_id = ?
			ORDER BY ord, id`,
			middlewares.TenantID(r.Context()),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_custom_fields", err)
			return
		}
		defer rows.Close()

		fields := []model.CustomField{}
		for rows.Next() {
			f := model.CustomField{}
			var options string
			if err := rows.Scan(&f.ID, &f.Name, &f.FieldType, &f.Required, &f.Order, &options); err != nil {
				httpx.LogInternalError(w, "db.get_custom_fields.scan", err)
				return
			}
			if options != "" {
				if err := json.Unmarshal([]byte(options), &f.Options); err != nil {
					httpx.LogInternalError(w, "db.get_custom_fields.parse_options", err)
					return
				}
			}
			fields = append(fields, f)
		}

		render.JSON(w, r, map[string]any{
			"customFields": fields,
		})
	}
}

func CreateCustomField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := model.CustomField{}
		err := render.DecodeJSON(r.Body, &f)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(f); err != nil {
			httpx.LogValidation(w, "create_custom_field.validate", err)
			return
		}
		if !model.ValidFieldType(f.FieldType) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_custom_field.type", "unknown field type %q", f.FieldType)
			return
		}

		var options []byte
		if f.Options != nil {
			options, err = json.Marshal(f.Options)
			if err != nil {
				httpx.LogInternalError(w, "create_custom_field.marshal_options", err)
				return
			}
		}

		var fieldId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO custom_field (tenant_id, name, field_type, required, ord, options)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			middlewares.TenantID(r.Context()), f.Name, f.FieldType, f.Required, f.Order, string(options),
		).Scan(&fieldId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_custom_field", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": fieldId,
		})
	}
}

func DeleteCustomField(app app.App) http.HandlerFunc {
	return deleteTenantRow(app, "custom_field", "delete_custom_field")
}

func ListDeviationTypes(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := middlewares.TenantID(r.Context())

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, name FROM deviation_type
			WHERE tenant_id = ?
			ORDER BY name, id`,
			tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_deviation_types", err)
			return
		}
		defer rows.Close()

		types := []model.DeviationType{}
		index := map[int]int{}
		for rows.Next() {
			t := model.DeviationType{}
			if err := rows.Scan(&t.ID, &t.Name); err != nil {
				httpx.LogInternalError(w, "db.get_deviation_types.scan", err)
				return
			}
			index[t.ID] = len(types)
			types = append(types, t)
		}

		assoc, err := app.QueryContext(r.Context(), `
			SELECT dtf.deviation_type_id, dtf.custom_field_id
			FROM deviation_type_field dtf
			INNER JOIN deviation_type dt ON (dt.id = dtf.deviation_type_id)
			WHERE dt.tenant_id = ?`,
			tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_deviation_types.fields", err)
			return
		}
		defer assoc.Close()

		for assoc.Next() {
			var typeID, fieldID int
			if err := assoc.Scan(&typeID, &fieldID); err != nil {
				httpx.LogInternalError(w, "db.get_deviation_types.fields.scan", err)
				return
			}
			if i, ok := index[typeID]; ok {
				types[i].FieldIDs = append(types[i].FieldIDs, fieldID)
			}
		}

		render.JSON(w, r, map[string]any{
			"deviationTypes": types,
		})
	}
}

func CreateDeviationType(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := model.DeviationType{}
		err := render.DecodeJSON(r.Body, &t)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(t); err != nil {
			httpx.LogValidation(w, "create_deviation_type.validate", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var typeId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO deviation_type (tenant_id, name) VALUES (?, ?)
			RETURNING id`,
			middlewares.TenantID(r.Context()), t.Name,
		).Scan(&typeId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_deviation_type", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO deviation_type_field (deviation_type_id, custom_field_id)
			VALUES (?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_deviation_type.fields.prepare", err)
			return
		}
		defer stmt.Close()

		for _, fieldID := range t.FieldIDs {
			_, err := stmt.ExecContext(r.Context(), typeId, fieldID)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_deviation_type.fields.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_deviation_type.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": typeId,
		})
	}
}

func DeleteDeviationType(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typeId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		tenantID := middlewares.TenantID(r.Context())

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM deviation_type_field WHERE deviation_type_id = ?`,
			typeId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_deviation_type.fields", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM deviation_type WHERE id = ? AND tenant_id = ?`,
			typeId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_deviation_type", err)
			return
		}
		if n, _ := res.RowsAffected(); n < 1 {
			httpx.LogNotFound(w, "delete_deviation_type", typeId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_deviation_type.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func CreateDeviation(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := model.Deviation{}
		err := render.DecodeJSON(r.Body, &d)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(d); err != nil {
			httpx.LogValidation(w, "create_deviation.validate", err)
			return
		}
		if d.Priority == "" {
			d.Priority = model.PriorityMedium
		}
		if !model.ValidPriority(d.Priority) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_deviation.priority", "unknown priority %q", d.Priority)
			return
		}
		userID := middlewares.UserID(r.Context())

		customValues := "{}"
		if d.CustomValues != nil {
			raw, err := json.Marshal(d.CustomValues)
			if err != nil {
				httpx.LogInternalError(w, "create_deviation.marshal_values", err)
				return
			}
			customValues = string(raw)
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var deviationId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO deviation (
				tenant_id, title, description, type_id, priority, status,
				assigned_to, due_date, custom_values, created_by
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			middlewares.TenantID(r.Context()), d.Title, d.Description, d.TypeID,
			d.Priority, model.StatusNew, d.AssignedTo, d.DueDate, customValues, userID,
		).Scan(&deviationId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_deviation", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO deviation_log (deviation_id, message, created_by)
			VALUES (?, 'created', ?)`,
			deviationId, userID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_deviation.log", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_deviation.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": deviationId,
		})
	}
}

func scanDeviation(row rowScanner) (model.Deviation, error) {
	d := model.Deviation{}
	var typeID, assignedTo, createdBy sql.NullInt64
	var dueDate sql.NullTime
	var customValues string
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &typeID, &d.Priority, &d.Status,
		&assignedTo, &dueDate, &customValues, &createdBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}
	if typeID.Valid {
		id := int(typeID.Int64)
		d.TypeID = &id
	}
	if assignedTo.Valid {
		id := int(assignedTo.Int64)
		d.AssignedTo = &id
	}
	if createdBy.Valid {
		id := int(createdBy.Int64)
		d.CreatedBy = &id
	}
	if dueDate.Valid {
		d.DueDate = &dueDate.Time
	}
	if customValues != "" {
		if err := json.Unmarshal([]byte(customValues), &d.CustomValues); err != nil {
			return d, err
		}
	}
	return d, nil
}

const deviationColumns = `
	id, title, description, type_id, priority, status,
	assigned_to, due_date, custom_values, created_by, created_at, updated_at`

func ListDeviations(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `SELECT` + deviationColumns + `
			FROM deviation
			WHERE tenant_id = ?`
		args := []any{middlewares.TenantID(r.Context())}

		if status := r.URL.Query().Get("status"); status != "" {
			query += ` AND status = ?`
			args = append(args, status)
		}
		if typeID := queryInt(r, "typeId"); typeID != nil {
			query += ` AND type_id = ?`
			args = append(args, *typeID)
		}
		query += ` ORDER BY created_at DESC, id DESC`

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, "db.get_deviations", err)
			return
		}
		defer rows.Close()

		deviations := []model.Deviation{}
		for rows.Next() {
			d, err := scanDeviation(rows)
			if err != nil {
				httpx.LogInternalError(w, "db.get_deviations.scan", err)
				return
			}
			deviations = append(deviations, d)
		}

		render.JSON(w, r, map[string]any{
			"deviations": deviations,
		})
	}
}

func GetDeviationById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviationId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		d, err := scanDeviation(app.QueryRowContext(r.Context(), `
			SELECT`+deviationColumns+`
			FROM deviation
			WHERE id = ? AND tenant_id = ?`,
			deviationId, middlewares.TenantID(r.Context()),
		))
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_deviation", deviationId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_deviation", err)
			return
		}

		render.JSON(w, r, d)
	}
}

// UpdateDeviation applies a partial update. Status and assignment changes
// append a log entry to the deviation's timeline.
func UpdateDeviation(app app.App) http.HandlerFunc {
	type patch struct {
		Title        *string         `json:"title"`
		Description  *string         `json:"description"`
		TypeID       *int            `json:"typeId"`
		Priority     *string         `json:"priority"`
		Status       *string         `json:"status"`
		AssignedTo   *int            `json:"assignedTo"`
		DueDate      *time.Time      `json:"dueDate"`
		CustomValues model.AnswerMap `json:"customValues"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		deviationId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		p := patch{}
		err = render.DecodeJSON(r.Body, &p)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if p.Priority != nil && !model.ValidPriority(*p.Priority) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "update_deviation.priority", "unknown priority %q", *p.Priority)
			return
		}
		if p.Status != nil && !model.ValidStatus(*p.Status) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "update_deviation.status", "unknown status %q", *p.Status)
			return
		}
		tenantID := middlewares.TenantID(r.Context())
		userID := middlewares.UserID(r.Context())

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		d, err := scanDeviation(tx.QueryRowContext(r.Context(), `
			SELECT`+deviationColumns+`
			FROM deviation
			WHERE id = ? AND tenant_id = ?`,
			deviationId, tenantID,
		))
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "update_deviation", deviationId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_deviation.load", err)
			return
		}

		var logs []string
		if p.Status != nil && *p.Status != d.Status {
			logs = append(logs, fmt.Sprintf("status changed from %s to %s", d.Status, *p.Status))
			d.Status = *p.Status
		}
		if p.AssignedTo != nil && (d.AssignedTo == nil || *d.AssignedTo != *p.AssignedTo) {
			logs = append(logs, fmt.Sprintf("assigned to user %d", *p.AssignedTo))
			d.AssignedTo = p.AssignedTo
		}
		if p.Title != nil {
			d.Title = *p.Title
		}
		if p.Description != nil {
			d.Description = *p.Description
		}
		if p.TypeID != nil {
			d.TypeID = p.TypeID
		}
		if p.Priority != nil {
			d.Priority = *p.Priority
		}
		if p.DueDate != nil {
			d.DueDate = p.DueDate
		}
		if p.CustomValues != nil {
			d.CustomValues = p.CustomValues
		}

		customValues := "{}"
		if d.CustomValues != nil {
			raw, err := json.Marshal(d.CustomValues)
			if err != nil {
				httpx.LogInternalError(w, "update_deviation.marshal_values", err)
				return
			}
			customValues = string(raw)
		}

		_, err = tx.ExecContext(r.Context(), `
			UPDATE deviation
			SET title = ?, description = ?, type_id = ?, priority = ?, status = ?,
				assigned_to = ?, due_date = ?, custom_values = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND tenant_id = ?`,
			d.Title, d.Description, d.TypeID, d.Priority, d.Status,
			d.AssignedTo, d.DueDate, customValues,
			deviationId, tenantID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_deviation", err)
			return
		}

		for _, message := range logs {
			_, err = tx.ExecContext(r.Context(), `
				INSERT INTO deviation_log (deviation_id, message, created_by)
				VALUES (?, ?, ?)`,
				deviationId, message, userID,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.update_deviation.log", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_deviation.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ListDeviationLogs(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviationId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT l.id, l.deviation_id, l.message, l.created_by, l.created_at
			FROM deviation_log l
			INNER JOIN deviation d ON (d.id = l.deviation_id)
			WHERE l.deviation_id = ? AND d.tenant_id = ?
			ORDER BY l.created_at, l.id`,
			deviationId, middlewares.TenantID(r.Context()),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_deviation_logs", err)
			return
		}
		defer rows.Close()

		logs := []model.DeviationLog{}
		for rows.Next() {
			l := model.DeviationLog{}
			var createdBy sql.NullInt64
			if err := rows.Scan(&l.ID, &l.DeviationID, &l.Message, &createdBy, &l.CreatedAt); err != nil {
				httpx.LogInternalError(w, "db.get_deviation_logs.scan", err)
				return
			}
			if createdBy.Valid {
				id := int(createdBy.Int64)
				l.CreatedBy = &id
			}
			logs = append(logs, l)
		}

		render.JSON(w, r, map[string]any{
			"logs": logs,
		})
	}
}

func ListDeviationComments(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviationId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT c.id, c.deviation_id, c.user_id, c.body, c.created_at
			FROM deviation_comment c
			INNER JOIN deviation d ON (d.id = c.deviation_id)
			WHERE c.deviation_id = ? AND d.tenant_id = ?
			ORDER BY c.created_at, c.id`,
			deviationId, middlewares.TenantID(r.Context()),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_deviation_comments", err)
			return
		}
		defer rows.Close()

		comments := []model.DeviationComment{}
		for rows.Next() {
			c := model.DeviationComment{}
			if err := rows.Scan(&c.ID, &c.DeviationID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
				httpx.LogInternalError(w, "db.get_deviation_comments.scan", err)
				return
			}
			comments = append(comments, c)
		}

		render.JSON(w, r, map[string]any{
			"comments": comments,
		})
	}
}

func CreateDeviationComment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviationId, err := urlParamInt(r, "id")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		c := model.DeviationComment{}
		err = render.DecodeJSON(r.Body, &c)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(c); err != nil {
			httpx.LogValidation(w, "create_deviation_comment.validate", err)
			return
		}

		var exists bool
		err = app.QueryRowContext(r.Context(),
			"SELECT 1 FROM deviation WHERE id = ? AND tenant_id = ?",
			deviationId, middlewares.TenantID(r.Context()),
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "create_deviation_comment", deviationId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.create_deviation_comment.deviation", err)
			return
		}

		var commentId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO deviation_comment (deviation_id, user_id, body)
			VALUES (?, ?, ?)
			RETURNING id`,
			deviationId, middlewares.UserID(r.Context()), c.Body,
		).Scan(&commentId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_deviation_comment", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": commentId,
		})
	}
}
