package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SendJSON(w http.ResponseWriter, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Add("Content-Type", "application/json")
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, log logrus.FieldLogger, v any) {
	if _, err := SendJSON(w, v); err != nil {
		log.WithError(err).Error("unable to send response")
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

// sendError writes status with the message of err as the body.
func sendError(w http.ResponseWriter, log logrus.FieldLogger, status int, err error) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	payload, _ := json.Marshal(wrapError(err))
	if _, err := w.Write(payload); err != nil {
		log.WithError(err).Debug("unable to send error")
	}
}

func internalError(w http.ResponseWriter, log logrus.FieldLogger, msg string, err error) {
	log.WithError(err).Error(msg)
	w.WriteHeader(http.StatusInternalServerError)
}
