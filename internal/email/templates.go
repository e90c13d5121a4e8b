package email

const confirmSubject = "Confirma tu email"

const confirmHTML = `<!DOCTYPE html>
<html>
<body style="font-family:Arial,sans-serif;color:#222">
  <h2>Confirma tu cuenta</h2>
  <p>Hola {{.Name}},</p>
  <p>Para activar tu cuenta hacé click en el siguiente enlace:</p>
  <p><a href="{{.Link}}">Confirmar email</a></p>
  <p>El enlace vence en {{.TTL}}.</p>
  <p style="color:#888;font-size:12px">Si no creaste esta cuenta, ignorá este mensaje.</p>
</body>
</html>`

const confirmText = `Hola {{.Name}},

Para activar tu cuenta visitá:

{{.Link}}

El enlace vence en {{.TTL}}.

Si no creaste esta cuenta, ignorá este mensaje.`

const resetSubject = "Restablecer password"

const resetHTML = `<!DOCTYPE html>
<html>
<body style="font-family:Arial,sans-serif;color:#222">
  <h2>Restablecer password</h2>
  <p>Hola {{.Name}},</p>
  <p>Recibimos un pedido para restablecer tu password. Para continuar hacé click acá:</p>
  <p><a href="{{.Link}}">Restablecer password</a></p>
  <p>El enlace vence en {{.TTL}}.</p>
  <p style="color:#888;font-size:12px">Si no pediste este cambio, ignorá este mensaje.</p>
</body>
</html>`

const resetText = `Hola {{.Name}},

Recibimos un pedido para restablecer tu password. Para continuar visitá:

{{.Link}}

El enlace vence en {{.TTL}}.

Si no pediste este cambio, ignorá este mensaje.`

// linkVars son las variables de los templates de confirmación y reset.
type linkVars struct {
	Name string
	Link string
	TTL  string
}
