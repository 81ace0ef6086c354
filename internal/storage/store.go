package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/couette/internal/automation"
	"github.com/san-kum/couette/internal/physics"
)

const (
	runPrefix    = "ivp_couette_"
	metadataFile = "metadata.json"
	dataFile     = "data.json"
)

// Per-variable CSV files written next to data.json.
var csvVariables = []string{"U0", "T", "eta"}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string {
	return s.baseDir
}

type FailureRecord struct {
	Index int     `json:"index"`
	Mach  float64 `json:"mach"`
	Flag  string  `json:"flag"`
	Error string  `json:"error"`
}

type RunMetadata struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Constants physics.Constants `json:"constants"`
	Machs     []float64         `json:"machs"`
	Converged int               `json:"converged"`
	Failed    int               `json:"failed"`
	Failures  []FailureRecord   `json:"failures,omitempty"`
	Points    int               `json:"points"`
	ElapsedMs int64             `json:"elapsed_ms"`
}

// Save writes a sweep into a new run directory named after the hex Unix
// time. A second save within the same second gets a numeric suffix.
func (s *Store) Save(result *automation.Result) (string, error) {
	ts := s.now()
	base := runPrefix + strconv.FormatInt(ts.Unix(), 16)

	runID := base
	runDir := filepath.Join(s.baseDir, runID)
	for n := 1; ; n++ {
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
		runID = fmt.Sprintf("%s-%d", base, n)
		runDir = filepath.Join(s.baseDir, runID)
	}

	data := result.Data()

	meta := RunMetadata{
		ID:        runID,
		Timestamp: ts,
		Constants: result.Constants,
		Machs:     result.Machs,
		Converged: result.Converged(),
		Failed:    result.Failed(),
		Points:    len(data.Y),
		ElapsedMs: result.Elapsed.Milliseconds(),
	}
	for _, f := range result.Failures {
		meta.Failures = append(meta.Failures, FailureRecord{
			Index: f.Index,
			Mach:  f.Mach,
			Flag:  f.Flag,
			Error: f.Error(),
		})
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, dataFile), data); err != nil {
		return "", err
	}

	series := map[string][][]float64{"U0": data.U0, "T": data.T, "eta": data.Eta}
	for _, name := range csvVariables {
		path := filepath.Join(runDir, name+".csv")
		if err := writeCSV(path, data.Y, data.MachR, series[name]); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeCSV writes one row per height: y followed by the value of each case.
func writeCSV(path string, y, machs []float64, rows [][]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)

	header := []string{"y"}
	for _, m := range machs {
		header = append(header, "M_r="+strconv.FormatFloat(m, 'f', -1, 64))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for k := range y {
		record := []string{strconv.FormatFloat(y[k], 'g', -1, 64)}
		for _, row := range rows {
			record = append(record, strconv.FormatFloat(row[k], 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every run in the store, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Resolve maps "latest" to the newest run ID; any other ID is returned as is.
func (s *Store) Resolve(runID string) (string, error) {
	if runID != "latest" {
		return runID, nil
	}
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in %s", s.baseDir)
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadData(runID string) (*automation.ExportData, error) {
	raw, err := os.ReadFile(filepath.Join(s.baseDir, runID, dataFile))
	if err != nil {
		return nil, err
	}

	var data automation.ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}

	return &data, nil
}

// LoadSeries reads one per-variable CSV back as heights and one column per case.
func (s *Store) LoadSeries(runID, variable string) ([]float64, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, variable+".csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, [][]float64{}, nil
	}

	cases := len(records[0]) - 1
	y := make([]float64, 0, len(records)-1)
	cols := make([][]float64, cases)
	for i := 1; i < len(records); i++ {
		v, err := strconv.ParseFloat(records[i][0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s.csv line %d: %w", variable, i+1, err)
		}
		y = append(y, v)
		for j := 0; j < cases; j++ {
			v, err := strconv.ParseFloat(records[i][j+1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s.csv line %d: %w", variable, i+1, err)
			}
			cols[j] = append(cols[j], v)
		}
	}

	return y, cols, nil
}
