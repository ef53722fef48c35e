package realtime

import (
	"encoding/json"
	"reflect"
	"time"

	"gorm.io/gorm"
)

// Keyed is implemented by models that expose filterable columns to
// subscribers.
type Keyed interface {
	RealtimeKeys() map[string]string
}

// CaptureChanges registers GORM callbacks that publish an event for every
// successful create, update and delete, after the transaction has been
// committed. Rows are published one event each; models that do not
// implement Keyed are published with no keys.
func CaptureChanges(db *gorm.DB, pub Publisher) error {
	if err := db.Callback().Create().After("gorm:commit_or_rollback_transaction").
		Register("realtime:after_create", publishChange(pub, Insert)); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:commit_or_rollback_transaction").
		Register("realtime:after_update", publishChange(pub, Update)); err != nil {
		return err
	}
	return db.Callback().Delete().After("gorm:commit_or_rollback_transaction").
		Register("realtime:after_delete", publishChange(pub, Delete))
}

func publishChange(pub Publisher, typ EventType) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement == nil || tx.Statement.Table == "" {
			return
		}
		if tx.Statement.SkipHooks {
			return
		}
		if typ != Insert && tx.RowsAffected == 0 {
			return
		}
		table := tx.Statement.Table
		now := time.Now().UTC()

		rows := rowsOf(tx.Statement.Dest)
		if len(rows) == 0 {
			rows = rowsOf(tx.Statement.Model)
		}
		if len(rows) == 0 {
			pub.Publish(Event{Table: table, Type: typ, At: now})
			return
		}
		for _, row := range rows {
			ev := Event{Table: table, Type: typ, At: now, Keys: keysOf(row, tx.Statement.Model)}
			if raw, err := json.Marshal(row); err == nil {
				ev.Record = raw
			}
			pub.Publish(ev)
		}
	}
}

// rowsOf flattens a GORM destination (struct, pointer, slice or map) into
// individual rows.
func rowsOf(v any) []any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			el := rv.Index(i)
			if el.CanAddr() {
				out = append(out, el.Addr().Interface())
			} else {
				out = append(out, el.Interface())
			}
		}
		return out
	case reflect.Struct, reflect.Map:
		if rv.CanAddr() {
			return []any{rv.Addr().Interface()}
		}
		return []any{rv.Interface()}
	}
	return nil
}

// keysOf reads realtime keys from row, falling back to the statement model
// for map-based updates. Empty values are omitted so filters treat them as
// unknown.
func keysOf(row, model any) map[string]string {
	var src map[string]string
	if k, ok := row.(Keyed); ok {
		src = k.RealtimeKeys()
	} else if m, ok := row.(*map[string]any); ok {
		src = keysFromMap(*m, model)
	} else if m, ok := row.(map[string]any); ok {
		src = keysFromMap(m, model)
	} else if k, ok := model.(Keyed); ok {
		src = k.RealtimeKeys()
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func keysFromMap(m map[string]any, model any) map[string]string {
	k, ok := model.(Keyed)
	if !ok {
		return nil
	}
	out := k.RealtimeKeys()
	for col := range out {
		if s, ok := m[col].(string); ok && s != "" {
			out[col] = s
		}
	}
	return out
}
