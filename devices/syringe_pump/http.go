package syringepump

import (
	"encoding/json"
	"errors"
	"github.com/jt05610/syringe/pump"
	"go.uber.org/zap"
	"io"
	"net/http"
	"sort"
	"strings"
)

type Methods map[string]http.Handler

func (h Methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	defer func(r io.ReadCloser) {
		_, _ = io.Copy(io.Discard, r)
		_ = r.Close()
	}(r.Body)

	if handler, ok := h[r.Method]; ok {
		if handler == nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		} else {
			handler.ServeHTTP(w, r)
		}
		return
	}

	w.Header().Add("Allow", h.allowedMethods())
	if r.Method != http.MethodOptions {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

func (h Methods) allowedMethods() string {
	a := make([]string, 0, len(h))
	for k := range h {
		a = append(a, k)
	}
	sort.Strings(a)

	return strings.Join(a, ", ")
}

func DecodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func EncodeJSON(w http.ResponseWriter, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}

// Routes returns the HTTP API:
//
//	GET  /pumps              pump ids
//	GET  /pumps/{id}         parsed status
//	POST /pumps/{id}         {"KEY": value, ...} as one SET
//	GET  /pumps/{id}/{field} one setting
//	PUT  /pumps/{id}/{field} {"value": ...}
func (d *SyringePump) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/pumps", Methods{
		http.MethodGet: http.HandlerFunc(d.ListHandler),
	})
	mux.Handle("/pumps/{id}", Methods{
		http.MethodGet:  http.HandlerFunc(d.GetStatusHandler),
		http.MethodPost: http.HandlerFunc(d.PostSetHandler),
	})
	mux.Handle("/pumps/{id}/{field}", Methods{
		http.MethodGet: http.HandlerFunc(d.GetFieldHandler),
		http.MethodPut: http.HandlerFunc(d.PutFieldHandler),
	})
	return mux
}

func (d *SyringePump) writeError(w http.ResponseWriter, err error) {
	code := http.StatusBadGateway
	switch {
	case errors.Is(err, pump.ErrTransportTimeout):
		code = http.StatusGatewayTimeout
	case errors.Is(err, ErrUnknownField):
		code = http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		code = http.StatusBadRequest
	}
	if code >= http.StatusInternalServerError {
		d.logger.Error("Pump request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), code)
}

func (d *SyringePump) writeJSON(w http.ResponseWriter, v interface{}) {
	if err := EncodeJSON(w, v); err != nil {
		d.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// pumpID resolves the {id} path segment, answering 404 for an unknown pump.
func (d *SyringePump) pumpID(w http.ResponseWriter, r *http.Request) (string, bool) {
	s := r.PathValue("id")
	if _, err := pump.ParseID(s); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return "", false
	}
	return s, true
}

func (d *SyringePump) ListHandler(w http.ResponseWriter, _ *http.Request) {
	ids := d.ch.Pumps()
	ret := make([]string, len(ids))
	for i, id := range ids {
		ret[i] = id.String()
	}
	d.writeJSON(w, ret)
}

func (d *SyringePump) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := d.pumpID(w, r)
	if !ok {
		return
	}
	resp, err := d.Status(r.Context(), &PumpRequest{Pump: id})
	if err != nil {
		d.writeError(w, err)
		return
	}
	d.writeJSON(w, resp)
}

func (d *SyringePump) PostSetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := d.pumpID(w, r)
	if !ok {
		return
	}
	var params map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := d.Set(r.Context(), &SetRequest{Pump: id, Params: params})
	if err != nil {
		d.writeError(w, err)
		return
	}
	d.writeJSON(w, resp)
}

func (d *SyringePump) GetFieldHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := d.pumpID(w, r)
	if !ok {
		return
	}
	resp, err := d.GetField(r.Context(), id, r.PathValue("field"))
	if err != nil {
		d.writeError(w, err)
		return
	}
	d.writeJSON(w, resp)
}

type FieldRequest struct {
	Value json.RawMessage `json:"value"`
}

func (d *SyringePump) PutFieldHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := d.pumpID(w, r)
	if !ok {
		return
	}
	var req FieldRequest
	if err := DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := d.SetField(r.Context(), id, r.PathValue("field"), req.Value)
	if err != nil {
		d.writeError(w, err)
		return
	}
	d.writeJSON(w, resp)
}
