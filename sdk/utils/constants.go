// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

const (
	IniName            = ".fsreg.ini"
	IniSource          = "ini_source"
	CurrentEnvironment = "current_environment"
	UpdatedEnvKey      = "updated_environment"

	RdeEndpoint         = "rde_endpoint"
	RdeMaterialEndpoint = "rde_material_endpoint"
	RdeAccessToken      = "rde_access_token"
	RdeTimeout          = "rde_timeout"

	StagingBaseDir = "staging_base_dir"
	MetadataDir    = "metadata_dir"
	OutputDir      = "output_dir"

	AwsAccessKeyID     = "aws_access_key_id"
	AwsSecretAccessKey = "aws_secret_access_key"
	AwsSessionToken    = "aws_session_token"
	AwsRegion          = "aws_region"
	AwsEndpointURL     = "aws_endpoint_url"
	S3Bucket           = "s3_bucket"
	S3Prefix           = "s3_prefix"

	// files written under the output directory after a registration
	UploadResponseFile = "upload_file.json"
	EntryResponseFile  = "create_entry.json"
)
