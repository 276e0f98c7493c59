package detect

import (
	"sort"

	"pantry-api/internal/model"
)

// Reshape flattens workflow outputs into predictions and per-class counts.
// Predictions may sit directly under "predictions" or one level deeper
// ({"predictions": {"image": ..., "predictions": [...]}}).
func Reshape(outputs []map[string]any) model.DetectionResult {
	res := model.DetectionResult{
		Predictions: make([]model.Prediction, 0),
		Counts:      make(map[string]int),
	}
	for _, out := range outputs {
		for _, p := range findPredictions(out["predictions"]) {
			res.Predictions = append(res.Predictions, p)
			res.Counts[p.Class]++
		}
	}
	sort.SliceStable(res.Predictions, func(i, j int) bool {
		return res.Predictions[i].Confidence > res.Predictions[j].Confidence
	})
	res.Total = len(res.Predictions)
	return res
}

func findPredictions(v any) []model.Prediction {
	switch x := v.(type) {
	case map[string]any:
		return findPredictions(x["predictions"])
	case []any:
		out := make([]model.Prediction, 0, len(x))
		for _, item := range x {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			class, _ := m["class"].(string)
			if class == "" {
				continue
			}
			out = append(out, model.Prediction{
				Class:      class,
				Confidence: number(m["confidence"]),
				X:          number(m["x"]),
				Y:          number(m["y"]),
				Width:      number(m["width"]),
				Height:     number(m["height"]),
			})
		}
		return out
	default:
		return nil
	}
}

func number(v any) float64 {
	f, _ := v.(float64)
	return f
}
