package nuscenes

import "fmt"

// SampleIndex orders the samples of a scene. ok=false from Next or Previous
// marks a scene boundary and is not an error.
type SampleIndex interface {
	FirstToken(sceneIndex int) (string, error)
	Next(token string) (string, bool, error)
	Previous(token string) (string, bool, error)
}

var _ SampleIndex = (*Dataset)(nil)

// FirstToken returns the first sample of the scene at sceneIndex.
func (d *Dataset) FirstToken(sceneIndex int) (string, error) {
	scene, err := d.Scene(sceneIndex)
	if err != nil {
		return "", err
	}
	if scene.FirstSampleToken == "" {
		return "", fmt.Errorf("scene %s has no samples: %w", scene.Name, ErrNotFound)
	}
	return scene.FirstSampleToken, nil
}

// Next returns the sample after token.
func (d *Dataset) Next(token string) (string, bool, error) {
	s, err := d.Sample(token)
	if err != nil {
		return "", false, err
	}
	if s.Next == "" {
		return "", false, nil
	}
	return s.Next, true, nil
}

// Previous returns the sample before token.
func (d *Dataset) Previous(token string) (string, bool, error) {
	s, err := d.Sample(token)
	if err != nil {
		return "", false, err
	}
	if s.Prev == "" {
		return "", false, nil
	}
	return s.Prev, true, nil
}

// SceneOf returns the table index of the scene containing token.
func (d *Dataset) SceneOf(token string) (int, error) {
	s, err := d.Sample(token)
	if err != nil {
		return 0, err
	}
	idx, ok := d.sceneIndex[s.SceneToken]
	if !ok {
		return 0, fmt.Errorf("scene %q of sample %s: %w", s.SceneToken, token, ErrNotFound)
	}
	return idx, nil
}

// Position returns the zero-based index of token within its scene and the
// number of samples reachable from the scene's first sample.
func (d *Dataset) Position(token string) (index, total int, err error) {
	sceneIdx, err := d.SceneOf(token)
	if err != nil {
		return 0, 0, err
	}
	index = -1
	seen := make(map[string]bool)
	for cur := d.scenes[sceneIdx].FirstSampleToken; cur != "" && !seen[cur]; {
		seen[cur] = true
		if cur == token {
			index = total
		}
		total++
		s, ok := d.samples[cur]
		if !ok {
			break
		}
		cur = s.Next
	}
	if index < 0 {
		return 0, total, fmt.Errorf("sample %s not reachable in its scene: %w", token, ErrNotFound)
	}
	return index, total, nil
}
