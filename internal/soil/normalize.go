package soil

// Normalize returns a copy of layers in which every layer carries the field set of the first
// layer. A layer keeps its own value for a field when it has one and otherwise inherits the first
// layer's value. Fields absent from the first layer are dropped. An empty input yields nil.
//
// The first layer acts as the schema for the whole profile, so input ordering matters.
func Normalize(layers []Layer) []Layer {
	if len(layers) == 0 {
		return nil
	}
	reference := layers[0]
	out := make([]Layer, 0, len(layers))
	for _, layer := range layers {
		full := reference.Clone()
		for key := range reference {
			if v, ok := layer[key]; ok {
				full[key] = v
			}
		}
		out = append(out, full)
	}
	return out
}
