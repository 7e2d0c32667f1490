package ace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoExperiments is returned when a dataset holds no experiment record.
var ErrNoExperiments = errors.New("dataset has no experiments")

// Dataset is an ACE document: either a collection with "experiments", "soils" and "weathers"
// arrays, or a single experiment object with embedded "soil" and "weather" buckets.
type Dataset struct {
	root   Record
	single bool
}

// ReadDataset decodes an ACE document. Numbers keep their textual form.
func ReadDataset(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if root == nil {
		return nil, ErrNoExperiments
	}
	d := &Dataset{root: Record(root)}
	_, hasExps := root["experiments"]
	_, hasSoils := root["soils"]
	_, hasWeathers := root["weathers"]
	d.single = !hasExps && !hasSoils && !hasWeathers
	return d, nil
}

// ReadFile loads a dataset from disk.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadDataset(f)
}

// Write encodes the dataset, including any modification made through its views.
func (d *Dataset) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any(d.root)); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

// WriteFile writes the dataset to path.
func (d *Dataset) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// Soils returns the soil records of a collection document.
func (d *Dataset) Soils() []Record {
	return d.root.List("soils")
}

// Weathers returns the weather records of a collection document.
func (d *Dataset) Weathers() []Record {
	return d.root.List("weathers")
}

// Experiments returns a view per experiment with its soil and weather resolved. A collection
// links them through soil_id and wst_id; an experiment without an id falls back to the first
// record of the collection.
func (d *Dataset) Experiments() []*Experiment {
	if d.single {
		return []*Experiment{newExperiment(d.root, nil, nil)}
	}
	soils, weathers := d.Soils(), d.Weathers()
	var out []*Experiment
	for _, rec := range d.root.List("experiments") {
		out = append(out, newExperiment(rec, soils, weathers))
	}
	return out
}

func lookup(records []Record, idKey, id string) Record {
	if len(records) == 0 {
		return nil
	}
	if id == "" {
		return records[0]
	}
	for _, rec := range records {
		if rec.Value(idKey) == id {
			return rec
		}
	}
	return nil
}
