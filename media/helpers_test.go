package media

import "timer-service/config"

func s3Config(endpoint string) config.S3Config {
	return config.S3Config{
		Bucket:    "timers",
		Region:    "us-east-1",
		Endpoint:  endpoint,
		AccessKey: "minio",
		SecretKey: "minio-secret",
	}
}
