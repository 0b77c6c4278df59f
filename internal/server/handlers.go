package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aayushbajaj/japcount/internal/counter"
	"github.com/gorilla/mux"
)

type stateResponse struct {
	counter.Summary
	Preferences counter.Preferences `json:"preferences"`
	Warning     string              `json:"warning,omitempty"`
}

type incrementResponse struct {
	counter.IncrementResult
	Warning string `json:"warning,omitempty"`
}

type goalRequest struct {
	Goal int64 `json:"goal"`
}

type preferencesRequest struct {
	SoundEnabled *bool    `json:"soundEnabled"`
	Volume       *float64 `json:"volume"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// warning turns a persistence failure into a message for the client. The
// change it refers to has already been applied in memory.
func warning(err error) string {
	if err == nil {
		return ""
	}
	return "not saved: " + err.Error()
}

func currentState(c *counter.Counter, err error) stateResponse {
	return stateResponse{
		Summary:     c.Summary(),
		Preferences: c.Preferences(),
		Warning:     warning(err),
	}
}

func GetState(c *counter.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.Reload()
		writeJSON(w, http.StatusOK, currentState(c, nil))
	}
}

func Increment(c *counter.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := c.Increment()
		writeJSON(w, http.StatusOK, incrementResponse{IncrementResult: res, Warning: warning(err)})
	}
}

// GetChart returns the buckets for the period in the path. The optional
// ref query parameter (YYYY-MM-DD) moves the reference day.
func GetChart(c *counter.Counter, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := counter.ParsePeriod(mux.Vars(r)["period"])
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ref := now()
		if raw := r.URL.Query().Get("ref"); raw != "" {
			t, ok := counter.ParseDateKey(raw, ref.Location())
			if !ok {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid ref date %q", raw))
				return
			}
			ref = t
		}

		buckets, err := c.ChartBuckets(period, ref)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"period":  period,
			"buckets": buckets,
		})
	}
}

func GetAchievements(c *counter.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Achievements())
	}
}

func UpdateGoal(c *counter.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req goalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		err := c.SetDailyGoal(req.Goal)
		if errors.Is(err, counter.ErrInvalidGoal) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, currentState(c, err))
	}
}

// UpdatePreferences applies whichever preferences the body names. Volume is
// validated before anything changes.
func UpdatePreferences(c *counter.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req preferencesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var errs []error
		if req.Volume != nil {
			err := c.SetVolume(*req.Volume)
			if errors.Is(err, counter.ErrInvalidVolume) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			errs = append(errs, err)
		}
		if req.SoundEnabled != nil {
			errs = append(errs, c.SetSoundEnabled(*req.SoundEnabled))
		}
		writeJSON(w, http.StatusOK, currentState(c, errors.Join(errs...)))
	}
}

// Export downloads a snapshot; ?format=yaml switches the encoding.
func Export(c *counter.Counter, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := c.ExportSnapshot()

		var (
			data        []byte
			err         error
			ext         = "json"
			contentType = "application/json"
		)
		switch r.URL.Query().Get("format") {
		case "", "json":
			data, err = snap.EncodeJSON()
		case "yaml", "yml":
			data, err = snap.EncodeYAML()
			ext = "yaml"
			contentType = "application/yaml"
		default:
			writeError(w, http.StatusBadRequest, "format must be json or yaml")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		filename := fmt.Sprintf("japcount-export-%s.%s", now().Format("2006-01-02"), ext)
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write(data)
	}
}

func Import(c *counter.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		snap, err := counter.DecodeSnapshot(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		err = c.Import(snap)
		if errors.Is(err, counter.ErrInvalidSnapshot) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, currentState(c, err))
	}
}

// Reset wipes all data. The body must carry {"confirm": true}.
func Reset(c *counter.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Confirm {
			writeError(w, http.StatusBadRequest, `reset requires {"confirm": true}`)
			return
		}
		err := c.ResetAll()
		writeJSON(w, http.StatusOK, currentState(c, err))
	}
}
