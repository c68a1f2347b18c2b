// Package job loads a load job from an HCL file.
//
// A job file names one CSV source, one target index and optionally the
// cluster connection, a spool directory and progress reporters:
//
//	source "csv" {
//	  path         = "data/companies.csv"
//	  infer_schema = true
//	  columns = {
//	    "year founded" = "integer"
//	  }
//	}
//
//	index "company" {
//	  bulk_size = 1000
//	  workers   = 2
//	}
//
//	cluster {
//	  addresses = ["http://localhost:9200"]
//	  password  = env.ELASTIC_PASSWORD
//	}
//
// The process environment is available as the `env` object.
package job
