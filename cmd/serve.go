package cmd

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/ruimo/klavier-core-sub000/bucket"
	"github.com/ruimo/klavier-core-sub000/chunk"
	"github.com/ruimo/klavier-core-sub000/constants"
	"github.com/ruimo/klavier-core-sub000/db"
	"github.com/ruimo/klavier-core-sub000/model"
	"github.com/ruimo/klavier-core-sub000/play"
	"github.com/ruimo/klavier-core-sub000/repeat"
)

// Store is where served renders are kept.
type Store interface {
	Put(p model.Performance) (model.Performance, error)
	Get(id string) (model.Performance, error)
}

var store Store

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", constants.GetAddr(), "listen address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the render API",
	Long:  `Serves POST /render, POST /locate and GET /performances/{id}`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := LoadServeStore(); err != nil {
			return err
		}
		log.Info("listening", "addr", serveAddr)
		return http.ListenAndServe(serveAddr, NewRouter())
	},
}

// LoadServeStore uses DynamoDB when an endpoint is configured and the
// bucket directory otherwise.
func LoadServeStore() error {
	if endpoint := constants.GetDynamoEndpoint(); endpoint != "" {
		s, err := db.New(endpoint, constants.GetDynamoRegion(), constants.GetDynamoTable())
		if err != nil {
			return err
		}
		log.Info("using DynamoDB", "endpoint", endpoint, "table", constants.GetDynamoTable())
		store = s
		return nil
	}
	b := bucket.New(constants.GetIndexDir())
	log.Info("using bucket", "dir", b.Dir())
	store = b
	return nil
}

func SetStore(s Store) {
	store = s
}

func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/render", HandleRender).Methods("POST")
	router.HandleFunc("/locate", HandleLocate).Methods("POST")
	router.HandleFunc("/performances/{id}", HandleGetPerformance).Methods("GET")
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(router)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Could not write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	res := model.ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var renderErr *repeat.RenderRegionError
	var cannotFind *play.CannotFindError
	var conflictErr *model.ConflictError
	switch {
	case errors.As(err, &cannotFind):
		status = http.StatusBadRequest
		res.MaxIter = &cannotFind.MaxIter
	case errors.As(err, &renderErr),
		errors.As(err, &conflictErr),
		errors.Is(err, ErrBadRequestBody),
		errors.Is(err, play.ErrOutOfRange),
		errors.Is(err, model.ErrUnsortedBars),
		errors.Is(err, model.ErrUnknownRepeat),
		errors.Is(err, model.ErrInvalidNumerator),
		errors.Is(err, model.ErrInvalidDenominator):
		status = http.StatusBadRequest
	case errors.Is(err, bucket.ErrNotFound), errors.Is(err, db.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	}
	writeJSON(w, status, res)
}

// ErrBadRequestBody wraps every failure to decode a request body.
var ErrBadRequestBody = errors.New("invalid request body")

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(ErrBadRequestBody, "%v", err)
	}
	return nil
}

func HandleRender(w http.ResponseWriter, r *http.Request) {
	var input model.RenderRequestBody
	if err := decode(r, &input); err != nil {
		writeError(w, err)
		return
	}

	perf, err := Render(input.Score)
	if err != nil {
		writeError(w, err)
		return
	}
	if input.Store {
		if perf, err = store.Put(perf); err != nil {
			writeError(w, err)
			return
		}
	}

	res := model.RenderResponse{ID: perf.ID, Chunks: perf.Chunks, Warnings: perf.Warnings}
	if input.Optimize {
		res.Chunks = chunk.Optimize(res.Chunks)
	}
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	writeJSON(w, http.StatusOK, res)
}

func HandleLocate(w http.ResponseWriter, r *http.Request) {
	var input model.LocateRequestBody
	if err := decode(r, &input); err != nil {
		writeError(w, err)
		return
	}
	res, err := Locate(input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perf)
}
