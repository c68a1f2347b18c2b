package job

// fileRoot is a struct used to decode all top-level blocks of a job file.
type fileRoot struct {
	Sources  []*sourceBlock   `hcl:"source,block"`
	Indices  []*indexBlock    `hcl:"index,block"`
	Cluster  *clusterBlock    `hcl:"cluster,block"`
	Spool    *spoolBlock      `hcl:"spool,block"`
	Progress []*progressBlock `hcl:"progress,block"`
}

// sourceBlock represents a `source "csv" { ... }` block.
type sourceBlock struct {
	Kind        string            `hcl:"kind,label"`
	Path        string            `hcl:"path"`
	Delimiter   *string           `hcl:"delimiter,optional"`
	Header      *bool             `hcl:"header,optional"`
	InferSchema bool              `hcl:"infer_schema,optional"`
	InferSample int               `hcl:"infer_sample,optional"`
	NullValue   string            `hcl:"null_value,optional"`
	Comment     string            `hcl:"comment,optional"`
	Columns     map[string]string `hcl:"columns,optional"`
}

// indexBlock represents an `index "<name>" { ... }` block.
type indexBlock struct {
	Name            string `hcl:"name,label"`
	Recreate        *bool  `hcl:"recreate,optional"`
	Mode            string `hcl:"mode,optional"`
	BulkSize        int    `hcl:"bulk_size,optional"`
	Workers         int    `hcl:"workers,optional"`
	IDField         string `hcl:"id_field,optional"`
	IDHash          bool   `hcl:"id_hash,optional"`
	Refresh         bool   `hcl:"refresh,optional"`
	Strict          bool   `hcl:"strict,optional"`
	Shards          int    `hcl:"shards,optional"`
	Replicas        *int   `hcl:"replicas,optional"`
	RefreshInterval string `hcl:"refresh_interval,optional"`
}

// clusterBlock represents the `cluster { ... }` block.
type clusterBlock struct {
	Addresses          []string `hcl:"addresses,optional"`
	Username           string   `hcl:"username,optional"`
	Password           string   `hcl:"password,optional"`
	APIKey             string   `hcl:"api_key,optional"`
	CACert             string   `hcl:"ca_cert,optional"`
	InsecureSkipVerify bool     `hcl:"insecure_skip_verify,optional"`
	Timeout            string   `hcl:"timeout,optional"`
	MaxRetries         *int     `hcl:"max_retries,optional"`
}

// spoolBlock represents the `spool { ... }` block.
type spoolBlock struct {
	Dir       string `hcl:"dir"`
	UploadURL string `hcl:"upload_url,optional"`
}

// progressBlock represents a `progress "socketio" { ... }` block.
type progressBlock struct {
	Kind               string `hcl:"kind,label"`
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	Event              string `hcl:"event,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
}
