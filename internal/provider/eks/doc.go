// Package eks provisions Amazon EKS clusters from a CloudFormation template
// kept in an S3 bucket.
//
// The stack is named after the cluster and creates the VPC, the control
// plane and an autoscaled node group. Worker nodes join the cluster once the
// aws-auth ConfigMap maps their instance role, which InitializeNetworking
// applies.
package eks
