package models

// ClusterAssignment maps one country to a cluster for the clustered year.
// Countries excluded for missing features are reported with Assigned=false,
// never forced into a cluster with imputed values.
type ClusterAssignment struct {
	Country  string `json:"country"`
	Cluster  int    `json:"cluster"` // 0-indexed; -1 when unassigned
	Assigned bool   `json:"assigned"`
}

// ClusterResult is the wholesale output of one clustering request. It is
// recomputed in full on each request, never incrementally updated.
type ClusterResult struct {
	Year        int                 `json:"year"`
	Features    []string            `json:"features"`
	K           int                 `json:"k"`
	Silhouette  float64             `json:"silhouette"`
	Centroids   [][]float64         `json:"centroids"` // standardized space
	Assignments []ClusterAssignment `json:"assignments"`
}
