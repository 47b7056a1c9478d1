package redis

const defaultNamespace = "scs-auth"

func makeKey(namespace, name string) string {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return namespace + ":" + name
}
