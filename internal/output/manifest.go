package output

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"

	"github.com/szaher/credprops/internal/props"
)

// Secret builds an Opaque Secret carrying every property under stringData.
func Secret(p props.Properties, opts Options) (*corev1.Secret, error) {
	if err := validateKeys(p); err != nil {
		return nil, err
	}
	return &corev1.Secret{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Secret",
		},
		ObjectMeta: objectMeta(opts),
		Type:       corev1.SecretTypeOpaque,
		StringData: copyMap(p),
	}, nil
}

// ConfigMap builds a ConfigMap carrying every property under data.
func ConfigMap(p props.Properties, opts Options) (*corev1.ConfigMap, error) {
	if err := validateKeys(p); err != nil {
		return nil, err
	}
	return &corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "ConfigMap",
		},
		ObjectMeta: objectMeta(opts),
		Data:       copyMap(p),
	}, nil
}

func renderSecret(p props.Properties, opts Options) ([]byte, error) {
	s, err := Secret(p, opts)
	if err != nil {
		return nil, err
	}
	return marshalManifest(s)
}

func renderConfigMap(p props.Properties, opts Options) ([]byte, error) {
	cm, err := ConfigMap(p, opts)
	if err != nil {
		return nil, err
	}
	return marshalManifest(cm)
}

func marshalManifest(obj any) ([]byte, error) {
	data, err := yaml.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return data, nil
}

func objectMeta(opts Options) metav1.ObjectMeta {
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: opts.Namespace,
		Labels:    opts.Labels,
	}
}

// validateKeys rejects keys Kubernetes does not accept in Secret or
// ConfigMap data.
func validateKeys(p props.Properties) error {
	var bad []string
	for _, k := range p.Keys() {
		if errs := validation.IsConfigMapKey(k); len(errs) > 0 {
			bad = append(bad, fmt.Sprintf("%q: %s", k, strings.Join(errs, "; ")))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid manifest keys: %s", strings.Join(bad, ", "))
	}
	return nil
}

func copyMap(p props.Properties) map[string]string {
	m := make(map[string]string, len(p))
	p.MergeInto(m)
	return m
}
