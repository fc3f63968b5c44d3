package server

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/unrolled/render"
)

// errorResponse is the body of every error reply.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(rd *render.Render, w http.ResponseWriter, status int, msg string) {
	rd.JSON(w, status, &errorResponse{Detail: msg})
}

func readJSON(r io.ReadCloser, data interface{}) error {
	defer r.Close()

	b, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.WithStack(err)
	}
	err = json.Unmarshal(b, data)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// pathID parses the uuid in the route variable name.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
