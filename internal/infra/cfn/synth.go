// Where: cli/internal/infra/cfn/synth.go
// What: Provisioning backend that records declarations as CloudFormation resources.
// Why: Deploy the assembled topology through CloudFormation with deferred references.
package cfn

import (
	"context"
	"fmt"
	"strings"

	"github.com/poruru/webviz-stack/internal/domain/topology"
)

const (
	ParamVpcID          = "VpcId"
	ParamSubnetIDs      = "SubnetIds"
	ParamArtifactBucket = "ArtifactBucket"

	clusterID          = "WebvizCluster"
	loadBalancerID     = "WebvizLB"
	lbSecurityGroupID  = "WebvizLBSecurityGroup"
	svcSecurityGroupID = "WebvizServiceSecurityGroup"
	targetGroupID      = "WebvizTargetGroup"
	listenerID         = "WebvizListener"
	taskRoleID         = "WebvizTaskExecutionRole"
	taskDefinitionID   = "WebvizTaskDefinition"

	lambdaRuntime     = "provided.al2023"
	lambdaHandler     = "bootstrap"
	logRetentionDays  = 30
	servicePrincipal  = "lambda.amazonaws.com"
	ecsTasksPrincipal = "ecs-tasks.amazonaws.com"
)

// BucketLookup optionally validates referenced buckets at synth time.
type BucketLookup interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// Synth implements topology.Backend by appending resources to a template.
type Synth struct {
	StackName string
	Region    string
	Buckets   BucketLookup

	template *Template
}

func NewSynth(stackName, region string) *Synth {
	return &Synth{StackName: stackName, Region: region}
}

// Template returns the template built so far.
func (s *Synth) Template() *Template {
	s.init()
	return s.template
}

func (s *Synth) AccountID() string {
	return "${AWS::AccountId}"
}

func (s *Synth) init() {
	if s.template != nil {
		return
	}
	metadata := map[string]any{"webviz:stack": s.StackName}
	if s.Region != "" {
		metadata["webviz:region"] = s.Region
	}
	s.template = &Template{
		AWSTemplateFormatVersion: formatVersion,
		Description:              "webviz viewer behind a load balancer with bag file storage",
		Metadata:                 metadata,
		Parameters:               map[string]Parameter{},
		Resources:                map[string]Resource{},
		Outputs:                  map[string]Output{},
	}
}

func (s *Synth) add(logicalID string, res Resource) error {
	s.init()
	if logicalID == "" {
		return fmt.Errorf("logical id is required")
	}
	if _, exists := s.template.Resources[logicalID]; exists {
		return fmt.Errorf("duplicate logical id %s", logicalID)
	}
	res.DependsOn = s.dependsOn(res.DependsOn)
	s.template.Resources[logicalID] = res
	return nil
}

// dependsOn drops empty ids and duplicates, keeping order.
func (s *Synth) dependsOn(ids []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *Synth) DeclareService(_ context.Context, decl topology.ServiceDeclaration) (topology.ServiceAddress, error) {
	s.init()
	port := decl.ContainerPort
	s.template.Parameters[ParamVpcID] = Parameter{Type: "AWS::EC2::VPC::Id", Description: "VPC hosting the load balancer and the service"}
	s.template.Parameters[ParamSubnetIDs] = Parameter{Type: "List<AWS::EC2::Subnet::Id>", Description: "Public subnets for the load balancer and tasks"}

	resources := []struct {
		id  string
		res Resource
	}{
		{clusterID, Resource{Type: "AWS::ECS::Cluster"}},
		{lbSecurityGroupID, Resource{Type: "AWS::EC2::SecurityGroup", Properties: map[string]any{
			"GroupDescription": "webviz load balancer",
			"VpcId":            ref(ParamVpcID),
			"SecurityGroupIngress": []any{map[string]any{
				"IpProtocol": "tcp", "FromPort": 80, "ToPort": 80, "CidrIp": "0.0.0.0/0",
			}},
		}}},
		{svcSecurityGroupID, Resource{Type: "AWS::EC2::SecurityGroup", Properties: map[string]any{
			"GroupDescription": "webviz service",
			"VpcId":            ref(ParamVpcID),
			"SecurityGroupIngress": []any{map[string]any{
				"IpProtocol": "tcp", "FromPort": port, "ToPort": port,
				"SourceSecurityGroupId": getAtt(lbSecurityGroupID, "GroupId"),
			}},
		}}},
		{loadBalancerID, Resource{Type: "AWS::ElasticLoadBalancingV2::LoadBalancer", Properties: map[string]any{
			"Name":           decl.LoadBalancerName,
			"Scheme":         "internet-facing",
			"Type":           "application",
			"Subnets":        ref(ParamSubnetIDs),
			"SecurityGroups": []any{getAtt(lbSecurityGroupID, "GroupId")},
		}}},
		{targetGroupID, Resource{Type: "AWS::ElasticLoadBalancingV2::TargetGroup", Properties: map[string]any{
			"Port":       port,
			"Protocol":   "HTTP",
			"TargetType": "ip",
			"VpcId":      ref(ParamVpcID),
		}}},
		{listenerID, Resource{Type: "AWS::ElasticLoadBalancingV2::Listener", Properties: map[string]any{
			"LoadBalancerArn": ref(loadBalancerID),
			"Port":            80,
			"Protocol":        "HTTP",
			"DefaultActions": []any{map[string]any{
				"Type": "forward", "TargetGroupArn": ref(targetGroupID),
			}},
		}}},
		{taskRoleID, Resource{Type: "AWS::IAM::Role", Properties: map[string]any{
			"AssumeRolePolicyDocument": assumeRole(ecsTasksPrincipal),
			"ManagedPolicyArns": []any{
				sub("arn:${AWS::Partition}:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy"),
			},
		}}},
		{taskDefinitionID, Resource{Type: "AWS::ECS::TaskDefinition", Properties: map[string]any{
			"RequiresCompatibilities": []string{"FARGATE"},
			"NetworkMode":             "awsvpc",
			"Cpu":                     "512",
			"Memory":                  "1024",
			"ExecutionRoleArn":        getAtt(taskRoleID, "Arn"),
			"ContainerDefinitions": []any{map[string]any{
				"Name":         "webviz",
				"Image":        decl.Image,
				"Essential":    true,
				"PortMappings": []any{map[string]any{"ContainerPort": port, "Protocol": "tcp"}},
			}},
		}}},
		{decl.LogicalID, Resource{Type: "AWS::ECS::Service", DependsOn: []string{listenerID}, Properties: map[string]any{
			"Cluster":        ref(clusterID),
			"LaunchType":     "FARGATE",
			"DesiredCount":   1,
			"TaskDefinition": ref(taskDefinitionID),
			"NetworkConfiguration": map[string]any{"AwsvpcConfiguration": map[string]any{
				"AssignPublicIp": "ENABLED",
				"Subnets":        ref(ParamSubnetIDs),
				"SecurityGroups": []any{getAtt(svcSecurityGroupID, "GroupId")},
			}},
			"LoadBalancers": []any{map[string]any{
				"ContainerName":  "webviz",
				"ContainerPort":  port,
				"TargetGroupArn": ref(targetGroupID),
			}},
		}}},
	}
	for _, r := range resources {
		if err := s.add(r.id, r.res); err != nil {
			return topology.ServiceAddress{}, topology.WrapBackend("DeclareService", err)
		}
	}
	return topology.ServiceAddress{
		Handle: topology.Handle{
			LogicalID: decl.LogicalID,
			Name:      decl.LoadBalancerName,
			ARN:       "${" + decl.LogicalID + "}",
		},
		DNSName: "${" + loadBalancerID + ".DNSName}",
	}, nil
}

// ReferenceBucket adds no resource. Existence is checked here only when a
// BucketLookup is configured; otherwise the custom action fails at deploy time.
func (s *Synth) ReferenceBucket(ctx context.Context, name string) (topology.Handle, error) {
	s.init()
	if s.Buckets != nil {
		exists, err := s.Buckets.BucketExists(ctx, name)
		if err != nil {
			return topology.Handle{}, topology.WrapBackend("ReferenceBucket", err)
		}
		if !exists {
			return topology.Handle{}, topology.WrapBackend("ReferenceBucket", topology.TargetNotFound(name))
		}
	}
	return topology.Handle{Name: name, ARN: "arn:${AWS::Partition}:s3:::" + name}, nil
}

func (s *Synth) CreateBucket(_ context.Context, decl topology.BucketDeclaration) (topology.Handle, error) {
	props := map[string]any{}
	if decl.Name != "" {
		props["BucketName"] = decl.Name
	}
	if len(decl.CORS) > 0 {
		rules := make([]any, 0, len(decl.CORS))
		for _, rule := range decl.CORS {
			rules = append(rules, map[string]any{
				"AllowedHeaders": subAll(rule.AllowedHeaders),
				"AllowedMethods": rule.AllowedMethods,
				"AllowedOrigins": subAll(rule.AllowedOrigins),
				"ExposedHeaders": rule.ExposedHeaders,
			})
		}
		props["CorsConfiguration"] = map[string]any{"CorsRules": rules}
	}
	if err := s.add(decl.LogicalID, Resource{Type: "AWS::S3::Bucket", DependsOn: decl.DependsOn, Properties: props}); err != nil {
		return topology.Handle{}, topology.WrapBackend("CreateBucket", err)
	}
	name := decl.Name
	if name == "" {
		name = "${" + decl.LogicalID + "}"
	}
	return topology.Handle{LogicalID: decl.LogicalID, Name: name, ARN: "${" + decl.LogicalID + ".Arn}"}, nil
}

func (s *Synth) DeclareRole(_ context.Context, decl topology.RoleDeclaration) (topology.Handle, error) {
	if err := decl.Grant.Validate(); err != nil {
		return topology.Handle{}, topology.WrapBackend("DeclareRole", err)
	}
	statements := make([]any, 0, len(decl.Grant.Permissions))
	for _, p := range decl.Grant.Permissions {
		statements = append(statements, map[string]any{
			"Effect":   string(p.Effect),
			"Action":   p.Action,
			"Resource": sub(p.Resource),
		})
	}
	props := map[string]any{
		"AssumeRolePolicyDocument": assumeRole(servicePrincipal),
		"Policies": []any{map[string]any{
			"PolicyName": decl.Grant.Name,
			"PolicyDocument": map[string]any{
				"Version":   "2012-10-17",
				"Statement": statements,
			},
		}},
	}
	if decl.Grant.BaselineLogging {
		props["ManagedPolicyArns"] = []any{
			sub("arn:${AWS::Partition}:iam::aws:policy/" + topology.BasicExecutionPolicy),
		}
	}
	if err := s.add(decl.LogicalID, Resource{Type: "AWS::IAM::Role", Properties: props}); err != nil {
		return topology.Handle{}, topology.WrapBackend("DeclareRole", err)
	}
	return topology.Handle{
		LogicalID: decl.LogicalID,
		Name:      "${" + decl.LogicalID + "}",
		ARN:       "${" + decl.LogicalID + ".Arn}",
	}, nil
}

func (s *Synth) DeclareFunction(_ context.Context, decl topology.FunctionDeclaration) (topology.Handle, error) {
	s.init()
	if decl.Role.LogicalID == "" {
		return topology.Handle{}, topology.WrapBackend("DeclareFunction", fmt.Errorf("%s: role is required", decl.LogicalID))
	}
	codeKey := decl.Kind + "CodeKey"
	s.template.Parameters[ParamArtifactBucket] = Parameter{Type: "String", Description: "Bucket holding the handler bundles"}
	s.template.Parameters[codeKey] = Parameter{
		Type:        "String",
		Description: decl.Kind + " handler bundle key",
		Default:     strings.ToLower(decl.Kind) + ".zip",
	}

	props := map[string]any{
		"Runtime":       lambdaRuntime,
		"Handler":       lambdaHandler,
		"Architectures": []string{"arm64"},
		"Timeout":       60,
		"Role":          getAtt(decl.Role.LogicalID, "Arn"),
		"Code": map[string]any{
			"S3Bucket": ref(ParamArtifactBucket),
			"S3Key":    ref(codeKey),
		},
	}
	if decl.FunctionName != "" {
		props["FunctionName"] = decl.FunctionName
	}
	if len(decl.Environment) > 0 {
		vars := make(map[string]any, len(decl.Environment))
		for key, v := range decl.Environment {
			vars[key] = sub(v)
		}
		props["Environment"] = map[string]any{"Variables": vars}
	}
	if err := s.add(decl.LogicalID, Resource{Type: "AWS::Lambda::Function", DependsOn: decl.DependsOn, Properties: props}); err != nil {
		return topology.Handle{}, topology.WrapBackend("DeclareFunction", err)
	}
	name := decl.FunctionName
	if name == "" {
		name = "${" + decl.LogicalID + "}"
	}
	return topology.Handle{LogicalID: decl.LogicalID, Name: name, ARN: "${" + decl.LogicalID + ".Arn}"}, nil
}

// DeclareCustomAction adds the custom resource plus a log group for its
// function retained for one month.
func (s *Synth) DeclareCustomAction(_ context.Context, decl topology.CustomActionDeclaration) (topology.Handle, error) {
	if decl.Function.LogicalID == "" {
		return topology.Handle{}, topology.WrapBackend("DeclareCustomAction", fmt.Errorf("%s: function is required", decl.LogicalID))
	}
	logGroupID := decl.Function.LogicalID + "LogGroup"
	if err := s.add(logGroupID, Resource{Type: "AWS::Logs::LogGroup", Properties: map[string]any{
		"LogGroupName":    sub("/aws/lambda/${" + decl.Function.LogicalID + "}"),
		"RetentionInDays": logRetentionDays,
	}}); err != nil {
		return topology.Handle{}, topology.WrapBackend("DeclareCustomAction", err)
	}

	props := map[string]any{"ServiceToken": getAtt(decl.Function.LogicalID, "Arn")}
	for key, v := range decl.Properties {
		props[key] = sub(v)
	}
	dependsOn := append(append([]string{}, decl.DependsOn...), logGroupID)
	if err := s.add(decl.LogicalID, Resource{Type: decl.ResourceType, DependsOn: dependsOn, Properties: props}); err != nil {
		return topology.Handle{}, topology.WrapBackend("DeclareCustomAction", err)
	}
	return topology.Handle{LogicalID: decl.LogicalID, Name: "${" + decl.LogicalID + "}"}, nil
}

// SetOutputs records stack outputs; deferred values become Fn::Sub.
func (s *Synth) SetOutputs(outputs map[string]string) {
	s.init()
	for key, v := range outputs {
		s.template.Outputs[key] = Output{Value: sub(v)}
	}
}

func assumeRole(principal string) map[string]any {
	return map[string]any{
		"Version": "2012-10-17",
		"Statement": []any{map[string]any{
			"Effect":    "Allow",
			"Principal": map[string]any{"Service": principal},
			"Action":    "sts:AssumeRole",
		}},
	}
}
